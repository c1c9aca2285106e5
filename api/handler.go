/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/demoapi"
	"github.com/tomoncle/demoapi/models"
	"github.com/tomoncle/demoapi/types"
	"github.com/tomoncle/demoapi/utils"
)

const (
	URLPlaceholderTickerSymbol = "tickerSymbol"

	// HeaderActorID optionally names the user behind a write.
	HeaderActorID = "X-Actor-ID"
)

// HealthChecker reports the current time of the store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (time.Time, error)
}

type Handler struct {
	securities         demoapi.Service[models.Security]
	values             demoapi.Service[models.ValueOverTime]
	health             HealthChecker
	includeErrorDetail bool
	logger             *logrus.Logger
}

type HandlerOption func(*Handler)

// WithErrorDetail adds the underlying error text to 500 responses.
func WithErrorDetail(include bool) HandlerOption {
	return func(h *Handler) { h.includeErrorDetail = include }
}

func NewHandler(securities demoapi.Service[models.Security], values demoapi.Service[models.ValueOverTime],
	health HealthChecker, opts ...HandlerOption) *Handler {
	h := &Handler{
		securities: securities,
		values:     values,
		health:     health,
		logger:     utils.NewLogger("API"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter registers every route of h behind the access log.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(AccessLog(h.logger))
	h.Register(r)
	return r
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.getHealth).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/securities", h.listSecurities).Methods(http.MethodGet).Name("list securities")
	r.HandleFunc("/securities", h.createSecurity).Methods(http.MethodPost).Name("create security")
	r.HandleFunc("/securities/{"+URLPlaceholderTickerSymbol+"}", h.getSecurity).
		Methods(http.MethodGet).Name("get security")
	r.HandleFunc("/securities/{"+URLPlaceholderTickerSymbol+"}/valueovertime", h.getValueOverTime).
		Methods(http.MethodGet).Name("get value over time")
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	now, err := h.health.HealthCheck(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "time": now})
}

func (h *Handler) listSecurities(w http.ResponseWriter, r *http.Request) {
	pager, err := pagerFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rs, err := h.securities.GetAll(r.Context(), nil, pager)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handler) getSecurity(w http.ResponseWriter, r *http.Request) {
	security, err := h.securityByTicker(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, security)
}

func (h *Handler) getValueOverTime(w http.ResponseWriter, r *http.Request) {
	security, err := h.securityByTicker(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	values, err := h.values.GetByOtherGUID(r.Context(), models.ColumnSecurityID, security.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

func (h *Handler) createSecurity(w http.ResponseWriter, r *http.Request) {
	var security models.Security
	if err := json.NewDecoder(r.Body).Decode(&security); err != nil {
		h.writeError(w, badRequest("invalid security body", err))
		return
	}
	// POST always inserts, whatever id the body carries.
	security.ID = uuid.Nil
	security.TickerSymbol = types.TrimmedString(strings.TrimSpace(string(security.TickerSymbol)))
	if security.TickerSymbol == "" {
		h.writeError(w, badRequest("tickerSymbol is required", nil))
		return
	}
	actorID, err := actorFromHeader(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.securities.Save(r.Context(), &security, actorID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &security)
}

func (h *Handler) securityByTicker(r *http.Request) (*models.Security, error) {
	ticker := strings.TrimSpace(mux.Vars(r)[URLPlaceholderTickerSymbol])
	found, err := h.securities.GetByStringKey(r.Context(), models.ColumnTickerSymbol, ticker)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, types.NewNotFoundError("no security with ticker symbol " + ticker)
	}
	return found[0], nil
}

func pagerFromQuery(r *http.Request) (*types.Pager, error) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("pageSize") == "" {
		return nil, nil
	}
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		return nil, badRequest("page must be an integer", err)
	}
	pageSize, err := optionalInt(q.Get("pageSize"))
	if err != nil {
		return nil, badRequest("pageSize must be an integer", err)
	}
	return types.NewPager(page, pageSize), nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func actorFromHeader(r *http.Request) (uuid.UUID, error) {
	v := r.Header.Get(HeaderActorID)
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, badRequest(HeaderActorID+" must be a uuid", err)
	}
	return id, nil
}

func badRequest(message string, cause error) error {
	return &types.StatusCodeError{StatusCode: http.StatusBadRequest, Message: message, Err: cause}
}

type errorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := types.StatusCode(err)
	body := errorBody{Status: status}

	var sce *types.StatusCodeError
	switch {
	case status == http.StatusInternalServerError:
		h.logger.WithError(err).Error("Request failed")
		body.Error = http.StatusText(status)
		if h.includeErrorDetail {
			body.Detail = err.Error()
		}
	case errors.As(err, &sce) && sce.Message != "":
		body.Error = sce.Message
	default:
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
