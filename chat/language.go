package chat

import (
	"fmt"
	"strings"
)

// vietnameseChars lists the diacritic-bearing letters common to Vietnamese
// text; together with the Latin Extended Additional block they make a cheap
// detector that never needs a language model.
const vietnameseChars = "àáảãạăằắẳẵặâầấẩẫậèéẻẽẹêềếểễệìíỉĩịòóỏõọôồốổỗộơờớởỡợùúủũụưừứửữựỳýỷỹỵđ"

func containsVietnamese(sample string) bool {
	for _, r := range sample {
		if r >= 0x1e00 && r <= 0x1eff {
			return true
		}
		if strings.ContainsRune(vietnameseChars, r) {
			return true
		}
	}
	return false
}

func containsCJK(sample string) bool {
	for _, r := range sample {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

// detectLanguageHint inspects the first 200 bytes of the query and returns an
// imperative instruction forcing the model's list-valued output fields into
// the detected language. Checked in order: Vietnamese, Chinese, else English.
func detectLanguageHint(query string) string {
	sample := query
	if len(sample) > 200 {
		sample = sample[:200]
	}
	if containsVietnamese(sample) {
		return "CRITICAL: The user wrote in VIETNAMESE. You MUST output rewritten_query and clarifying_questions ONLY in Vietnamese. Do NOT use Chinese or English for these fields."
	}
	if containsCJK(sample) {
		return "CRITICAL: The user wrote in CHINESE. You MUST output rewritten_query and clarifying_questions ONLY in Chinese."
	}
	return "CRITICAL: The user wrote in ENGLISH. You MUST output rewritten_query and clarifying_questions ONLY in English."
}

// buildClarifyingMessage formats clarifying questions as a numbered list
// wrapped in intro/outro sentences matching the user's language (Vietnamese
// or English, by the same diacritic heuristic used for query analysis).
func buildClarifyingMessage(questions []string, userMessage string) string {
	sample := userMessage
	if len(sample) > 100 {
		sample = sample[:100]
	}

	intro := "To help me answer more accurately, could you please clarify:\n\n"
	outro := "\n\nPlease provide more details so I can better assist you."
	if containsVietnamese(sample) {
		intro = "Để tôi trả lời chính xác hơn, bạn có thể làm rõ giúp tôi:\n\n"
		outro = "\n\nVui lòng cung cấp thêm thông tin để tôi có thể hỗ trợ bạn tốt hơn."
	}

	lines := make([]string, 0, len(questions))
	for i, q := range questions {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, q))
	}
	return intro + strings.Join(lines, "\n") + outro
}
