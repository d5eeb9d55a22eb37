package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TextReceiptRenderer writes plain-text receipts into a directory
type TextReceiptRenderer struct {
	dir string
}

// NewTextReceiptRenderer creates a renderer writing into dir
func NewTextReceiptRenderer(dir string) *TextReceiptRenderer {
	return &TextReceiptRenderer{dir: dir}
}

// RenderReceipt writes the receipt and returns its file path
func (r *TextReceiptRenderer) RenderReceipt(ctx context.Context, kind string, payload map[string]interface{}) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	ref := fmt.Sprintf("%s-%s", kind, uuid.NewString())
	path := filepath.Join(r.dir, ref+".txt")

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "LIBRARY %s RECEIPT\n", strings.ToUpper(kind))
	fmt.Fprintf(&b, "Reference: %s\n", ref)
	fmt.Fprintf(&b, "Issued:    %s\n\n", time.Now().Format(time.RFC3339))
	for _, k := range keys {
		fmt.Fprintf(&b, "%-16s %v\n", k+":", payload[k])
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}
