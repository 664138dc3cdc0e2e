package api

import (
	"encoding/json"
	"net/http"
)

///////////////////////////////////////////////////////////////////////////////
// Response envelope
///////////////////////////////////////////////////////////////////////////////

// Response is the value a view handler returns. Content is rendered as the
// JSON body of an answer with the given status code.
type Response struct {
	Status  int
	Content any
}

// OK wraps content in a 200 response.
func OK(content any) *Response {
	return &Response{Status: http.StatusOK, Content: content}
}

// Created wraps content in a 201 response.
func Created(content any) *Response {
	return &Response{Status: http.StatusCreated, Content: content}
}

// NoContent returns a bodyless 204 response.
func NoContent() *Response {
	return &Response{Status: http.StatusNoContent}
}

// FromError builds the client-facing response for an API failure. The body
// shape is {"error_msg": message}.
func FromError(e *Error) *Response {
	return &Response{
		Status:  e.Status,
		Content: map[string]string{"error_msg": e.Message},
	}
}

// WriteJSON renders resp onto w. The content is marshaled before any byte
// is written, so an unmarshalable content value fails without committing a
// status code. A 204 commits the status alone; http.ResponseWriter rejects
// bodies on that code.
func WriteJSON(w http.ResponseWriter, resp *Response) error {
	if resp.Status == http.StatusNoContent {
		w.WriteHeader(resp.Status)
		return nil
	}
	buf, err := json.Marshal(resp.Content)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, err = w.Write(buf)
	return err
}
