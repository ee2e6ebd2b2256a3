package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/jwebster45206/story-proxy/pkg/chat"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

func TestMockLLMService(t *testing.T) {
	mockService := NewMockLLMAPI()

	err := mockService.InitModel(context.Background(), "test-model")
	if err != nil {
		t.Errorf("InitModel failed: %v", err)
	}

	if len(mockService.InitModelCalls) != 1 {
		t.Errorf("Expected 1 InitModel call, got %d", len(mockService.InitModelCalls))
	}

	if mockService.InitModelCalls[0] != "test-model" {
		t.Errorf("Expected model name 'test-model', got '%s'", mockService.InitModelCalls[0])
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "Hello"},
	}

	response, err := mockService.Chat(context.Background(), messages)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	// The default reply must be a usable turn
	if _, err := state.DecodeReply(response.Message); err != nil {
		t.Errorf("Default mock reply did not decode: %v", err)
	}

	_, chatCalls := mockService.GetCalls()
	if len(chatCalls) != 1 {
		t.Errorf("Expected 1 Chat call, got %d", len(chatCalls))
	}
}

func TestMockLLMService_ErrorHandling(t *testing.T) {
	mockService := NewMockLLMAPI()

	expectedErr := fmt.Errorf("initialization failed")
	mockService.SetInitModelError(expectedErr)

	err := mockService.InitModel(context.Background(), "test-model")
	if err == nil {
		t.Fatalf("Expected error, got nil")
	}

	if err.Error() != expectedErr.Error() {
		t.Errorf("Expected error '%s', got '%s'", expectedErr.Error(), err.Error())
	}

	mockService.SetChatError(expectedErr)
	if _, err := mockService.Chat(context.Background(), nil); err != expectedErr {
		t.Errorf("Expected chat error, got %v", err)
	}

	mockService.SetChatResponse("not json")
	resp, err := mockService.Chat(context.Background(), nil)
	if err != nil || resp.Message != "not json" {
		t.Errorf("Expected canned response, got %v, %v", resp, err)
	}

	mockService.Reset()
	if init, calls := mockService.GetCalls(); len(init) != 0 || len(calls) != 0 {
		t.Errorf("Expected reset to clear calls")
	}
}
