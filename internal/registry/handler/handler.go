package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"slotkeeper/internal/platform/middleware"
	"slotkeeper/internal/registry/models"
	"slotkeeper/internal/registry/ports"
	"slotkeeper/pkg/domain"
	dErrors "slotkeeper/pkg/domain-errors"
	"slotkeeper/pkg/platform/sentinel"
)

// Service defines the registration operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, net domain.NetID, key domain.Key) (models.Registration, error)
}

// Handler is the thin HTTP layer over the registry. It delegates to the
// registration service and stores without embedding admission logic.
type Handler struct {
	logger     *slog.Logger
	service    Service
	slots      ports.SlotStore
	params     ports.ParamsStore
	counters   ports.CounterStore
	validator  middleware.TokenValidator
	adminToken string
}

// New creates a registry Handler.
func New(
	service Service,
	slots ports.SlotStore,
	params ports.ParamsStore,
	counters ports.CounterStore,
	validator middleware.TokenValidator,
	adminToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		slots:      slots,
		params:     params,
		counters:   counters,
		validator:  validator,
		adminToken: adminToken,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/networks", func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))

		r.Get("/{netuid}", h.handleGetNetwork)
		r.Get("/{netuid}/slots", h.handleListSlots)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.validator, h.logger))
			r.Post("/{netuid}/registrations", h.handleRegister)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
			r.Post("/", h.handleCreateNetwork)
			r.Put("/{netuid}/requirements/{other}", h.handleSetRequirement)
			r.Put("/{netuid}/slots/{uid}/score", h.handleSetScore)
		})
	})
}

// handleRegister admits the authenticated caller key into the network.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	net, err := domain.ParseNetID(chi.URLParam(r, "netuid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid netuid"))
		return
	}

	key := middleware.GetCallerKey(ctx)
	if key == "" {
		h.logger.ErrorContext(ctx, "caller key missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	reg, err := h.service.Register(ctx, net, domain.Key(key))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "registration failed",
				"netuid", net,
				"error", err,
				"request_id", middleware.GetRequestID(ctx),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

func (h *Handler) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	net, err := domain.ParseNetID(chi.URLParam(r, "netuid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid netuid"))
		return
	}

	params, err := h.params.Params(ctx, net)
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "network does not exist"))
		return
	}
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load network"))
		return
	}

	occupied, err := h.slots.OccupiedCount(ctx, net)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read occupancy"))
		return
	}
	block, err := h.counters.RegistrationsThisBlock(ctx, net)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read block counter"))
		return
	}
	interval, err := h.counters.RegistrationsThisInterval(ctx, net)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read interval counter"))
		return
	}

	writeJSON(w, http.StatusOK, NetworkResponse{
		NetUID:                    uint16(net),
		Params:                    params,
		Occupied:                  occupied,
		RegistrationsThisBlock:    block,
		RegistrationsThisInterval: interval,
	})
}

func (h *Handler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	net, err := domain.ParseNetID(chi.URLParam(r, "netuid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid netuid"))
		return
	}

	exists, err := h.params.Exists(ctx, net)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check network"))
		return
	}
	if !exists {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "network does not exist"))
		return
	}

	slots, err := h.slots.Slots(ctx, net)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list slots"))
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{NetUID: uint16(net), Slots: slots})
}

func (h *Handler) handleCreateNetwork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err := h.params.Create(ctx, domain.NetID(req.NetUID), models.NetworkParams{
		Capacity:                 req.Capacity,
		ImmunityPeriod:           req.ImmunityPeriod,
		MaxRegistrationsPerBlock: req.MaxRegistrationsPerBlock,
	})
	if errors.Is(err, sentinel.ErrConflict) {
		writeError(w, dErrors.New(dErrors.CodeConflict, "network already exists"))
		return
	}
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create network"))
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleSetRequirement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, err := domain.ParseNetID(chi.URLParam(r, "netuid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid netuid"))
		return
	}
	to, err := domain.ParseNetID(chi.URLParam(r, "other"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid target netuid"))
		return
	}

	var req SetRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err = h.params.SetRequirement(ctx, from, to, req.Threshold)
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "network does not exist"))
		return
	}
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set requirement"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	net, err := domain.ParseNetID(chi.URLParam(r, "netuid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid netuid"))
		return
	}
	uid, err := domain.ParseUID(chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid uid"))
		return
	}

	var req SetScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	err = h.slots.SetPruningScore(ctx, net, uid, domain.Score(req.Score))
	if errors.Is(err, sentinel.ErrNotFound) {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "slot does not exist"))
		return
	}
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set score"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
