package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TaskGenerator turns free text into task drafts.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

type AIService struct {
	client   *openai.Client
	timeFunc func() time.Time
}

type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

type generatedTaskList struct {
	Tasks []GeneratedTask `json:"tasks"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client:   openai.NewClient(apiKey),
		timeFunc: time.Now,
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.timeFunc().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You extract actionable tasks from text for a team task tracker.

Current time: %s

Text:
%s

Return a JSON object of this shape:
{
  "tasks": [
    {
      "title": "short task title",
      "description": "details of the task",
      "due_date": "deadline in RFC 3339, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
    }
  ]
}

Rules:
- Return {"tasks": []} when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into absolute times
- due_date must be an RFC 3339 string or null
- Return JSON only, with no commentary`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	var list generatedTaskList
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return list.Tasks, nil
}
