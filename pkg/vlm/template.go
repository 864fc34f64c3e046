package vlm

import (
	"fmt"
	"strings"
	"text/template"
)

// Chat templates by model type. Templates see .Prompt and .Images (one
// element per image).
var ChatTemplates = map[string]string{
	"idefics3": "<|im_start|>User:{{range .Images}}<image>{{end}}{{.Prompt}}<end_of_utterance>\nAssistant:",
	"granite":  "<|start_of_role|>user<|end_of_role|>{{range .Images}}<image>{{end}}{{.Prompt}}<|end_of_text|>\n<|start_of_role|>assistant<|end_of_role|>",

	"qwen2_vl":   "<|im_start|>user\n{{range .Images}}<|vision_start|><|image_pad|><|vision_end|>{{end}}{{.Prompt}}<|im_end|>\n<|im_start|>assistant\n",
	"qwen2_5_vl": "<|im_start|>user\n{{range .Images}}<|vision_start|><|image_pad|><|vision_end|>{{end}}{{.Prompt}}<|im_end|>\n<|im_start|>assistant\n",

	"llava": "USER: {{range .Images}}<image>\n{{end}}{{.Prompt}} ASSISTANT:",
}

const defaultChatTemplate = "{{range .Images}}<image>{{end}}{{.Prompt}}"

var (
	_ Processor = (*TemplateProcessor)(nil)
	_ Processor = PassthroughProcessor{}
)

// PassthroughProcessor leaves the prompt untouched, for generators that
// apply the chat template themselves.
type PassthroughProcessor struct{}

func (PassthroughProcessor) ApplyChatTemplate(config *ModelConfig, prompt string, numImages int) (string, error) {
	return prompt, nil
}

// TemplateProcessor formats prompts with Go templates. An explicit template
// wins over the model type lookup.
type TemplateProcessor struct {
	template string
}

func NewTemplateProcessor(template string) *TemplateProcessor {
	return &TemplateProcessor{
		template: template,
	}
}

func (p *TemplateProcessor) ApplyChatTemplate(config *ModelConfig, prompt string, numImages int) (string, error) {
	source := p.template

	if source == "" {
		source = lookupChatTemplate(config)
	}

	t, err := template.New("chat").Parse(source)

	if err != nil {
		return "", fmt.Errorf("invalid chat template: %w", err)
	}

	data := struct {
		Prompt string
		Images []struct{}
	}{
		Prompt: prompt,
		Images: make([]struct{}, numImages),
	}

	var sb strings.Builder

	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("invalid chat template: %w", err)
	}

	return sb.String(), nil
}

func lookupChatTemplate(config *ModelConfig) string {
	if config == nil {
		return defaultChatTemplate
	}

	// granite-docling ships as idefics3 with a granite text model
	if strings.EqualFold(config.TextConfig.ModelType, "granite") {
		return ChatTemplates["granite"]
	}

	if t, ok := ChatTemplates[strings.ToLower(config.ModelType)]; ok {
		return t
	}

	return defaultChatTemplate
}
