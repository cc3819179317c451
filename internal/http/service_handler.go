package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Olawill/church-transport-application-sub001/internal/application"
	"github.com/Olawill/church-transport-application-sub001/internal/persistence"
)

type catalogService interface {
	CreateServiceDefinition(ctx context.Context, principal application.Principal, input application.ServiceDefinitionInput) (application.ServiceDefinition, []application.ServiceDay, error)
	UpdateServiceDefinition(ctx context.Context, principal application.Principal, id string, input application.ServiceDefinitionInput) (application.ServiceDefinition, error)
	GetServiceDefinition(ctx context.Context, id string) (application.ServiceDefinition, []application.ServiceDay, error)
	ListServiceDefinitions(ctx context.Context, principal application.Principal, includeArchived bool) ([]application.ServiceDefinition, error)
	ArchiveServiceDefinition(ctx context.Context, principal application.Principal, id string) (application.ServiceDefinition, error)
	ActivateServiceDefinition(ctx context.Context, principal application.Principal, id string) (application.ServiceDefinition, error)
}

type ServiceHandler struct {
	service   catalogService
	responder responder
}

func NewServiceHandler(service catalogService, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{service: service, responder: newResponder(logger)}
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req servicePayload
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

	definition, days, err := h.service.CreateServiceDefinition(r.Context(), principal, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toServiceDTO(definition, days))
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	serviceID, ok := ServiceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(serviceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidServiceID)
		return
	}

	var req servicePayload
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

	definition, err := h.service.UpdateServiceDefinition(r.Context(), principal, serviceID, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toServiceDTO(definition, nil))
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	serviceID, ok := ServiceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(serviceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidServiceID)
		return
	}

	definition, days, err := h.service.GetServiceDefinition(r.Context(), serviceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toServiceDTO(definition, days))
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	definitions, err := h.service.ListServiceDefinitions(r.Context(), principal, queryFlag(r.URL.Query(), "include_archived"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]serviceDTO, 0, len(definitions))
	for _, definition := range definitions {
		dtos = append(dtos, toServiceDTO(definition, nil))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, serviceListResponse{Services: dtos})
}

func (h *ServiceHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "archive")
}

func (h *ServiceHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "activate")
}

func (h *ServiceHandler) transition(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	serviceID, ok := ServiceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(serviceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidServiceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var definition application.ServiceDefinition
	var err error
	if action == "archive" {
		definition, err = h.service.ArchiveServiceDefinition(r.Context(), principal, serviceID)
	} else {
		definition, err = h.service.ActivateServiceDefinition(r.Context(), principal, serviceID)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toServiceDTO(definition, nil))
}

type servicePayload struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	TimeOfDay  string   `json:"time_of_day"`
	StepMonths int      `json:"step_months,omitempty"`
	Ordinal    string   `json:"ordinal,omitempty"`
	Weekdays   []string `json:"weekdays"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
}

func (p servicePayload) toInput() (application.ServiceDefinitionInput, error) {
	input := application.ServiceDefinitionInput{
		Name:       strings.TrimSpace(p.Name),
		Category:   persistence.ServiceCategory(strings.ToUpper(strings.TrimSpace(p.Category))),
		TimeOfDay:  strings.TrimSpace(p.TimeOfDay),
		StepMonths: p.StepMonths,
		Ordinal:    strings.ToUpper(strings.TrimSpace(p.Ordinal)),
	}

	for _, name := range p.Weekdays {
		weekday, err := parseWeekday(name)
		if err != nil {
			return application.ServiceDefinitionInput{}, err
		}
		input.Weekdays = append(input.Weekdays, weekday)
	}

	if raw := strings.TrimSpace(p.StartDate); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.ServiceDefinitionInput{}, fmt.Errorf("invalid start_date %q", raw)
		}
		input.StartDate = &start
	}
	if raw := strings.TrimSpace(p.EndDate); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return application.ServiceDefinitionInput{}, fmt.Errorf("invalid end_date %q", raw)
		}
		input.EndDate = &end
	}
	return input, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return time.Sunday, fmt.Errorf("invalid weekday %q", name)
	}
}

type serviceDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	TimeOfDay  string   `json:"time_of_day"`
	StepMonths int      `json:"step_months,omitempty"`
	Ordinal    string   `json:"ordinal,omitempty"`
	Active     bool     `json:"active"`
	ArchivedAt string   `json:"archived_at,omitempty"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	Weekdays   []string `json:"weekdays,omitempty"`
}

type serviceListResponse struct {
	Services []serviceDTO `json:"services"`
}

func toServiceDTO(definition application.ServiceDefinition, days []application.ServiceDay) serviceDTO {
	dto := serviceDTO{
		ID:         definition.ID,
		Name:       definition.Name,
		Category:   string(definition.Category),
		TimeOfDay:  definition.TimeOfDay,
		StepMonths: definition.StepMonths,
		Ordinal:    definition.Ordinal,
		Active:     definition.Active,
	}
	if definition.ArchivedAt != nil {
		dto.ArchivedAt = definition.ArchivedAt.UTC().Format(time.RFC3339Nano)
	}
	if definition.StartDate != nil {
		dto.StartDate = definition.StartDate.Format(dateLayout)
	}
	if definition.EndDate != nil {
		dto.EndDate = definition.EndDate.Format(dateLayout)
	}
	for _, day := range days {
		dto.Weekdays = append(dto.Weekdays, strings.ToLower(day.Weekday.String()))
	}
	return dto
}
