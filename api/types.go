package api

// =============================================================================
// 语音合成类型
// =============================================================================

// TextToSpeechRequest 代表一次语音合成请求。
// 字段使用指针以区分"缺省"与"显式空字符串"：缺省的 language 取默认值，
// 显式的 "" 则按普通语言代码校验。
// @Description 语音合成请求结构
type TextToSpeechRequest struct {
	// 要朗读的文本，缺省为 ""
	Text *string `json:"text,omitempty" example:"Hello world"`
	// 语言代码，缺省为 "en"
	Language *string `json:"language,omitempty" example:"en"`
}

// TextOrDefault returns the text, or "" when absent.
func (r *TextToSpeechRequest) TextOrDefault() string {
	if r.Text == nil {
		return ""
	}
	return *r.Text
}

// LanguageOrDefault returns the language, or def when absent.
func (r *TextToSpeechRequest) LanguageOrDefault(def string) string {
	if r.Language == nil {
		return def
	}
	return *r.Language
}

// =============================================================================
// 语言列表类型
// =============================================================================

// Language 是一个受支持的语言。
type Language struct {
	Code string `json:"code" example:"en"`
	Name string `json:"name" example:"English"`
}

// LanguagesResponse 是 /api/languages 的数据部分。
// @Description 支持的语言列表
type LanguagesResponse struct {
	Provider  string     `json:"provider" example:"google"`
	Default   string     `json:"default" example:"en"`
	Count     int        `json:"count" example:"70"`
	Languages []Language `json:"languages"`
}
