// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"bytes"
	"encoding/json"
)

// JSend status values
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// JSendResponse is the envelope of every JSON response
type JSendResponse struct {
	Status  string `json:"status" example:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty" example:"Product not found"`
	Code    int    `json:"code,omitempty" example:"404"`
}

// Success wraps data in a success envelope
func Success(data any) JSendResponse {
	return JSendResponse{Status: StatusSuccess, Data: data}
}

// Fail reports a client side validation failure. data maps field names to messages.
func Fail(data any) JSendResponse {
	return JSendResponse{Status: StatusFail, Data: data}
}

// Error reports a failure with a human readable message
func Error(message string, code int, data any) JSendResponse {
	return JSendResponse{Status: StatusError, Message: message, Code: code, Data: data}
}

// PaginationResponse is the data of every list endpoint
type PaginationResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total" example:"42"`
	Page  int   `json:"page" example:"1"`
	Size  int   `json:"size" example:"100"`
	Pages int   `json:"pages" example:"1"`
}

// NewPagination builds a page with pages = ceil(total/size)
func NewPagination[T any](items []T, total int64, page, size int) PaginationResponse[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PaginationResponse[T]{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
}

// ItemResponse wraps a single resource
type ItemResponse[T any] struct {
	Item T `json:"item"`
}

// NewItem wraps v as {"item": v}
func NewItem[T any](v T) ItemResponse[T] {
	return ItemResponse[T]{Item: v}
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message" example:"Customer deleted successfully"`
}

// PageQuery holds normalised paging and ordering parameters
type PageQuery struct {
	Page      int
	Size      int
	SortBy    string
	SortOrder string
}

// Offset translates page and size to a row offset
func (q PageQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Size
}

// Limit is the page size
func (q PageQuery) Limit() int {
	return q.Size
}

// Nullable distinguishes an absent JSON field from an explicit null.
// Set is true when the key was present; Valid is false when it was null.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value when present and non-null
func (n Nullable[T]) Ptr() *T {
	if !n.Set || !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
