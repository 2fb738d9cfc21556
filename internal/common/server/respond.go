package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Abukstech/folocom/internal/common/apperr"
)

// Meta 列表响应的分页元信息。
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewMeta 由 total/page/limit 计算分页元信息。
func NewMeta(total int64, page, limit int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

type dataBody struct {
	Data any `json:"data"`
}

type listBody struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// WriteJSON 输出任意 JSON 响应。
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData 输出 {"data": ...}。
func WriteData(w http.ResponseWriter, status int, v any) {
	WriteJSON(w, status, dataBody{Data: v})
}

// WriteList 输出 {"data": [...], "meta": {...}}。
func WriteList(w http.ResponseWriter, v any, meta Meta) {
	WriteJSON(w, http.StatusOK, listBody{Data: v, Meta: meta})
}

// WriteError 输出统一的错误响应体。
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{
		StatusCode: status,
		Message:    msg,
		Error:      http.StatusText(status),
	})
}

// WriteAppError 将业务错误分类映射为 HTTP 状态码后输出。
func WriteAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// 内部错误细节不外露
		msg = "internal error"
	}
	WriteError(w, status, msg)
}

// ParsePage 从 query 解析 page/limit，默认 1/10，limit 上限 100。
func ParsePage(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
