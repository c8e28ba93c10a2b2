package intent

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"aide/internal/action"
)

const systemPrompt = `
You are AIDE-NLU — the command resolver for a personal assistant.
Your ONLY job is to map the user's utterance onto ONE of the commands
listed below.

GENERAL RULES:
1. Do NOT converse.
2. Do NOT answer the question yourself.
3. Do NOT add explanations.
4. Output ONLY JSON. No markdown.
5. Never invent commands or argument names outside the list.

OUTPUT FORMAT:
{
  "name": "<command name>",
  "args": { "<param>": <value>, ... }
}

If no listed command fits the utterance, output exactly:
{ "name": "none" }

COMMANDS:
%s

ARGUMENT RULES:
- Only use the parameter names shown in the signature.
- Omit optional parameters the user did not mention.
- Never invent missing values.

Be strict and minimal. Do not generate text other than the JSON.
`

// noMatchName is the sentinel the model emits for unresolvable input.
const noMatchName = "none"

// Client talks to the OpenAI chat API, both for command resolution and
// for plain question answering.
type Client struct {
	api openai.Client
}

func NewClient(api openai.Client) *Client {
	return &Client{api: api}
}

// Infer asks the model which candidate command the utterance means.
func (c *Client) Infer(ctx context.Context, text string, candidates []action.Spec) (Call, error) {
	var sigs strings.Builder
	for _, spec := range candidates {
		sigs.WriteString("- ")
		sigs.WriteString(spec.Signature())
		if spec.Description != "" {
			sigs.WriteString("  # ")
			sigs.WriteString(spec.Description)
		}
		sigs.WriteString("\n")
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, sigs.String())),
			openai.UserMessage(text),
		},
		Model: openai.ChatModelGPT5Nano,
	})
	if err != nil {
		return Call{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Call{}, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return Call{}, fmt.Errorf("empty message content")
	}

	log.Debug("Inferred", "data", content)

	var call Call
	if err := json.Unmarshal([]byte(content), &call); err != nil {
		return Call{}, fmt.Errorf("unmarshal inference result: %w (raw: %s)", err, content)
	}

	if call.Name == "" || call.Name == noMatchName {
		return Call{}, ErrNoMatch
	}

	return call, nil
}

// Ask forwards a free question to the model and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are Aide, a terse personal assistant. Answer in a few sentences."),
			openai.UserMessage(question),
		},
		Model: openai.ChatModelGPT5Nano,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
