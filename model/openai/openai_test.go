package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/model"
)

func TestBuildMessagesKeepsAssistantTextWithToolCalls(t *testing.T) {
	req := model.Request{
		Instructions: "be useful",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "analyze this"),
			{Role: core.RoleAssistant, Parts: []core.Part{
				core.TextPart{Text: "Extracting the text first."},
				core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID: "c1", Name: "extract_text_from_pdf", Arguments: "{}",
				}},
			}},
			{Role: core.RoleTool, Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID: "c1", Name: "extract_text_from_pdf", Response: `{"success": true}`,
				}},
			}},
		},
	}

	messages := buildMessages(req)
	require.Len(t, messages, 4) // system, user, assistant, tool

	assistant := messages[2].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "c1", assistant.ToolCalls[0].ID)
	require.True(t, assistant.Content.OfString.Valid())
	assert.Equal(t, "Extracting the text first.", assistant.Content.OfString.Value)

	tool := messages[3].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "c1", tool.ToolCallID)
}

func TestBuildMessagesAssistantTextOnly(t *testing.T) {
	req := model.Request{
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "hi"),
			core.NewTextContent(core.RoleAssistant, "All done."),
		},
	}

	messages := buildMessages(req)
	require.Len(t, messages, 2)
	require.NotNil(t, messages[1].OfAssistant)
	assert.True(t, messages[1].OfAssistant.Content.OfString.Valid())
}
