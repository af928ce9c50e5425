package chat

import (
	"bytes"
	"encoding/json"
	"strings"
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Watcher 旁路解析 SSE 流，累积助手输出的文本
//
// 它只观察数据，不修改转发给客户端的字节。非 JSON 的 data 行会被忽略。
type Watcher struct {
	pending []byte
	text    strings.Builder
}

// Write 实现 io.Writer，可配合 io.TeeReader 或 io.MultiWriter 使用
func (w *Watcher) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.line(bytes.TrimRight(w.pending[:i], "\r"))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *Watcher) line(l []byte) {
	payload, ok := bytes.CutPrefix(l, []byte("data:"))
	if !ok {
		return
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("[DONE]")) {
		return
	}

	var chunk streamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return
	}
	for _, c := range chunk.Choices {
		w.text.WriteString(c.Delta.Content)
	}
}

// Text 返回目前累积的助手文本
func (w *Watcher) Text() string {
	return w.text.String()
}

// InquiryNeeded 报告助手是否输出了转人工标记
func (w *Watcher) InquiryNeeded() bool {
	return ContainsInquirySentinel(w.text.String())
}
