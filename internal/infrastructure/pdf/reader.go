// Package pdf 提供 PDF 文本与元数据提取
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/Be1newinner/ask-guruji/internal/application/knowledge"
)

// extractConcurrency 单个文档的并发提取页数上限
const extractConcurrency = 4

// Document 一份 PDF 的提取结果
type Document struct {
	Pages []knowledge.PageText
	Meta  knowledge.DocumentMeta
}

// Extract 解析 PDF 字节流，逐页提取文本并读取 Info 字典元数据。
// 页面并发提取，结果按页码顺序返回。
func Extract(ctx context.Context, fileName string, data []byte) (*Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages <= 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	texts := make([]string, numPages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i := 1; i <= numPages; i++ {
		g.Go(func() (err error) {
			// 底层解析器对损坏的内容流会 panic
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("failed to extract page %d: %v", i, rec)
				}
			}()
			if gctx.Err() != nil {
				return gctx.Err()
			}

			page := reader.Page(i)
			if page.V.IsNull() {
				return nil
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("failed to extract page %d: %w", i, err)
			}
			texts[i-1] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pages := make([]knowledge.PageText, 0, numPages)
	for i, text := range texts {
		pages = append(pages, knowledge.PageText{Page: i + 1, Text: text})
	}

	doc := &Document{
		Pages: pages,
		Meta:  readInfoDict(reader),
	}
	doc.Meta.FileName = fileName
	return doc, nil
}

// readInfoDict 读取 PDF Info 字典中的文档元数据。缺失字段留空。
func readInfoDict(reader *pdf.Reader) knowledge.DocumentMeta {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return knowledge.DocumentMeta{}
	}
	return knowledge.DocumentMeta{
		Title:      infoString(info, "Title"),
		Author:     infoString(info, "Author"),
		Keywords:   infoString(info, "Keywords"),
		CreatedAt:  infoString(info, "CreationDate"),
		ModifiedAt: infoString(info, "ModDate"),
	}
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return v.RawString()
}
