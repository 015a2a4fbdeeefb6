package http

import (
	"net/http"
)

type createTodoRequest struct {
	Text string `json:"text"`
}

type updateTodoRequest struct {
	Completed *bool `json:"completed"`
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request, userID string) {
	todos, err := s.todos.List(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request, userID string) {
	var req createTodoRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	todo, err := s.todos.Add(r.Context(), userID, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateTodoRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if req.Completed == nil {
		respondBadRequest(w, "missing completed field")
		return
	}

	todo, err := s.todos.SetCompleted(r.Context(), userID, r.PathValue("id"), *req.Completed)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.todos.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
