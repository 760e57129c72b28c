package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptFile is the on-disk layout of the system prompt configuration.
type PromptFile struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadSystemPrompt resolves the system prompt sent ahead of every completion request.
// The inline SYSTEM_PROMPT value wins; otherwise the YAML file at SystemPromptFile is read.
func (c *Config) LoadSystemPrompt() (string, error) {
	if prompt := strings.TrimSpace(c.SystemPrompt); prompt != "" {
		return prompt, nil
	}
	if c.SystemPromptFile == "" {
		return "", errors.New("no system prompt configured: set SYSTEM_PROMPT or SYSTEM_PROMPT_FILE")
	}
	return ReadPromptFile(c.SystemPromptFile)
}

// ReadPromptFile parses a prompt YAML file and returns its trimmed system prompt.
func ReadPromptFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt file: %w", err)
	}

	var file PromptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("parse prompt file %s: %w", path, err)
	}

	prompt := strings.TrimSpace(file.SystemPrompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s: system_prompt is empty", path)
	}
	return prompt, nil
}
