package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/application"
)

const dateLayout = "2006-01-02"

type requestService interface {
	CreateRequest(ctx context.Context, params application.CreateRequestParams) ([]application.Request, error)
	UpdateRequest(ctx context.Context, params application.UpdateRequestParams) ([]application.Request, error)
	CancelRequest(ctx context.Context, principal application.Principal, requestID string, cancelSeries bool) ([]application.Request, error)
	GetRequest(ctx context.Context, principal application.Principal, requestID string) (application.Request, error)
	ListRequests(ctx context.Context, params application.ListRequestsParams) ([]application.Request, error)
}

type RequestHandler struct {
	service   requestService
	responder responder
}

func NewRequestHandler(service requestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{service: service, responder: newResponder(logger)}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req requestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	created, err := h.service.CreateRequest(r.Context(), application.CreateRequestParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderRequests(r.Context(), w, created, http.StatusCreated)
}

func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	var req requestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	updated, err := h.service.UpdateRequest(r.Context(), application.UpdateRequestParams{
		Principal:    principal,
		RequestID:    requestID,
		UpdateSeries: queryFlag(r.URL.Query(), "series"),
		Input:        input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderRequests(r.Context(), w, updated, http.StatusOK)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	cancelled, err := h.service.CancelRequest(r.Context(), principal, requestID, queryFlag(r.URL.Query(), "series"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderRequests(r.Context(), w, cancelled, http.StatusOK)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	request, err := h.service.GetRequest(r.Context(), principal, requestID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRequestDTO(request))
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildListParams(r.URL.Query(), principal)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	requests, err := h.service.ListRequests(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderRequests(r.Context(), w, requests, http.StatusOK)
}

func (h *RequestHandler) renderRequests(ctx context.Context, w http.ResponseWriter, requests []application.Request, status int) {
	dtos := make([]requestDTO, 0, len(requests))
	for _, request := range requests {
		dtos = append(dtos, toRequestDTO(request))
	}
	h.responder.writeJSON(ctx, w, status, requestListResponse{Requests: dtos})
}

func buildListParams(query url.Values, principal application.Principal) (application.ListRequestsParams, error) {
	params := application.ListRequestsParams{
		Principal: principal,
		UserID:    strings.TrimSpace(query.Get("user_id")),
		SeriesID:  strings.TrimSpace(query.Get("series_id")),
	}

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.ListRequestsParams{}, fmt.Errorf("invalid from date %q", raw)
		}
		params.From = &from
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.ListRequestsParams{}, fmt.Errorf("invalid to date %q", raw)
		}
		params.To = &to
	}
	return params, nil
}

func queryFlag(query url.Values, name string) bool {
	switch strings.ToLower(strings.TrimSpace(query.Get(name))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

type requestPayload struct {
	UserID              string `json:"user_id,omitempty"`
	ServiceDefinitionID string `json:"service_definition_id"`
	ServiceDayID        string `json:"service_day_id"`
	RequestDate         string `json:"request_date"`
	AddressID           string `json:"address_id"`
	Pickup              bool   `json:"pickup"`
	Dropoff             bool   `json:"dropoff"`
	GroupSize           int    `json:"group_size"`
	Notes               string `json:"notes,omitempty"`
	Recurring           bool   `json:"recurring,omitempty"`
	RecurrenceEndDate   string `json:"recurrence_end_date,omitempty"`
}

func (p requestPayload) toInput() (application.RequestInput, error) {
	input := application.RequestInput{
		UserID:              strings.TrimSpace(p.UserID),
		ServiceDefinitionID: strings.TrimSpace(p.ServiceDefinitionID),
		ServiceDayID:        strings.TrimSpace(p.ServiceDayID),
		AddressID:           strings.TrimSpace(p.AddressID),
		Pickup:              p.Pickup,
		Dropoff:             p.Dropoff,
		GroupSize:           p.GroupSize,
		Notes:               p.Notes,
		Recurring:           p.Recurring,
	}

	if raw := strings.TrimSpace(p.RequestDate); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.RequestInput{}, fmt.Errorf("invalid request_date %q", raw)
		}
		input.RequestDate = date
	}
	if raw := strings.TrimSpace(p.RecurrenceEndDate); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.RequestInput{}, fmt.Errorf("invalid recurrence_end_date %q", raw)
		}
		input.RecurrenceEndDate = &end
	}
	return input, nil
}

type requestDTO struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	ServiceDefinitionID string `json:"service_definition_id"`
	ServiceDayID        string `json:"service_day_id"`
	SeriesID            string `json:"series_id,omitempty"`
	RequestDate         string `json:"request_date"`
	AddressID           string `json:"address_id"`
	Pickup              bool   `json:"pickup"`
	Dropoff             bool   `json:"dropoff"`
	GroupSize           int    `json:"group_size"`
	Notes               string `json:"notes,omitempty"`
	Status              string `json:"status"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

type requestListResponse struct {
	Requests []requestDTO `json:"requests"`
}

func toRequestDTO(request application.Request) requestDTO {
	dto := requestDTO{
		ID:                  request.ID,
		UserID:              request.UserID,
		ServiceDefinitionID: request.ServiceDefinitionID,
		ServiceDayID:        request.ServiceDayID,
		RequestDate:         request.RequestDate.Format(dateLayout),
		AddressID:           request.AddressID,
		Pickup:              request.Pickup,
		Dropoff:             request.Dropoff,
		GroupSize:           request.GroupSize,
		Status:              string(request.Status),
		CreatedAt:           request.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:           request.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if request.SeriesID != nil {
		dto.SeriesID = *request.SeriesID
	}
	if request.Notes != nil {
		dto.Notes = *request.Notes
	}
	return dto
}
