package knowledge

import (
	"fmt"
	"strings"
)

const answerPromptTemplate = `Answer the question based only on the following context:

%s

Question: %s`

// BuildAnswerPrompt 将召回结果拼装为回答生成的 Prompt。
// 正文之间用双换行分隔；只注入正文，不把 score 等调试信息塞进 Prompt。
func BuildAnswerPrompt(docs []*ScoredDocument, question string) string {
	return fmt.Sprintf(answerPromptTemplate, buildContext(docs), strings.TrimSpace(question))
}

func buildContext(docs []*ScoredDocument) string {
	if len(docs) == 0 {
		return "(no context available)"
	}
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		txt := strings.TrimSpace(d.Text)
		if txt == "" {
			continue
		}
		contents = append(contents, txt)
	}
	if len(contents) == 0 {
		return "(no context available)"
	}
	return strings.Join(contents, "\n\n")
}
