package services

import (
	"context"
	"fmt"

	"finura/internal/core"
	"finura/internal/store"
)

type TodoService struct {
	store store.TodoStore
}

func NewTodoService(s store.TodoStore) *TodoService {
	return &TodoService{store: s}
}

func (s *TodoService) Add(ctx context.Context, userID, text string) (core.Todo, error) {
	todo := core.Todo{UserID: userID, Text: text}
	if err := todo.Validate(); err != nil {
		return core.Todo{}, err
	}
	saved, err := s.store.AddTodo(ctx, todo)
	if err != nil {
		return core.Todo{}, fmt.Errorf("save todo: %w", err)
	}
	return saved, nil
}

func (s *TodoService) SetCompleted(ctx context.Context, userID, id string, completed bool) (core.Todo, error) {
	return s.store.SetTodoCompleted(ctx, userID, id, completed)
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteTodo(ctx, userID, id)
}

func (s *TodoService) List(ctx context.Context, userID string) ([]core.Todo, error) {
	return s.store.ListTodos(ctx, userID)
}
