package anticaptcha

// TaskTypeImageToText is the task type for plain image captchas.
const TaskTypeImageToText = "ImageToTextTask"

// TaskOptions tune how image-to-text captchas are solved.
type TaskOptions struct {
	Phrase    bool   `json:"phrase" mapstructure:"phrase"`
	Case      bool   `json:"case" mapstructure:"case"`
	Numeric   int    `json:"numeric" mapstructure:"numeric"`
	Math      bool   `json:"math" mapstructure:"math"`
	MinLength int    `json:"minLength" mapstructure:"minlength"`
	MaxLength int    `json:"maxLength" mapstructure:"maxlength"`
	Comment   string `json:"comment" mapstructure:"comment"`
}

// ImageToTextTask is the createTask payload for an image captcha. Every
// field is always sent, zero values included.
type ImageToTextTask struct {
	Type      string `json:"type"`
	Body      string `json:"body"`
	Phrase    bool   `json:"phrase"`
	Case      bool   `json:"case"`
	Numeric   int    `json:"numeric"`
	Math      bool   `json:"math"`
	MinLength int    `json:"minLength"`
	MaxLength int    `json:"maxLength"`
	Comment   string `json:"comment"`
}

// NewImageToTextTask builds the payload for a base64 encoded image.
func NewImageToTextTask(body string, opts TaskOptions) *ImageToTextTask {
	return &ImageToTextTask{
		Type:      TaskTypeImageToText,
		Body:      body,
		Phrase:    opts.Phrase,
		Case:      opts.Case,
		Numeric:   opts.Numeric,
		Math:      opts.Math,
		MinLength: opts.MinLength,
		MaxLength: opts.MaxLength,
		Comment:   opts.Comment,
	}
}
