package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vojaudio/voj-server/internal/http/response"
	"github.com/vojaudio/voj-server/internal/service"
)

// handleCreateBook creates a new draft book.
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var input service.CreateBookInput
	if err := s.decodeBody(r, &input); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	book, err := s.services.Book.CreateBook(r.Context(), input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleListBooks returns a paginated book listing with optional status,
// genre, and search filters.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := service.ListBooksParams{
		Pagination: parsePaginationParams(r),
		Status:     query.Get("status"),
		Genre:      query.Get("genre"),
		Search:     query.Get("search"),
	}

	result, err := s.services.Book.ListBooks(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

// handleGetBook returns a single book by ID.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.services.Book.GetBook(r.Context(), id)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleUpdateBook applies a partial update to a book.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	var input service.UpdateBookInput
	if err := s.decodeBody(r, &input); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	book, err := s.services.Book.UpdateBook(r.Context(), id, input)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleDeleteBook deletes a book, its chapters, and their audio objects.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	if err := s.services.Book.DeleteBook(r.Context(), id); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("book deleted", "id", id, "admin", getUsername(r.Context()))
	response.NoContent(w)
}
