package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/linkage"
)

// Handler is the Gin controller for the linkage core's HTTP surface (§6,
// §4.8): POST /link plus the algorithm upload/lookup endpoints.
type Handler struct {
	service    *linkage.Service
	algorithms algorithm.Store
	validate   *validator.Validate
}

// NewHandler wires a linkage Handler.
func NewHandler(service *linkage.Service, algorithms algorithm.Store) *Handler {
	return &Handler{service: service, algorithms: algorithms, validate: validator.New()}
}

// Link handles POST /link.
func (h *Handler) Link(ctx *gin.Context) {
	var req LinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.respondValidationError(ctx, err)
		return
	}

	response, err := h.service.Link(ctx.Request.Context(), toLinkRequest(req))
	if err != nil {
		h.respondLinkageError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toLinkResponse(response))
}

// GetAlgorithm handles GET /algorithms/:label.
func (h *Handler) GetAlgorithm(ctx *gin.Context) {
	label := ctx.Param("label")
	cfg, err := h.algorithms.Load(ctx.Request.Context(), label)
	if err != nil {
		if errors.Is(err, algorithm.ErrNotFound) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "No algorithm found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "loading algorithm configuration"})
		return
	}
	ctx.JSON(http.StatusOK, toConfigResponse(cfg))
}

// CreateAlgorithm handles POST /algorithms (§4.8): stores a new, immutable
// algorithm configuration under its label.
func (h *Handler) CreateAlgorithm(ctx *gin.Context) {
	var req AlgorithmConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.respondValidationError(ctx, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondValidationError(ctx, err)
		return
	}

	cfg, err := toConfig(req)
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if err := h.algorithms.Save(ctx.Request.Context(), cfg); err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"label": cfg.Label})
}

func (h *Handler) respondValidationError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid request", "errors": details})
		return
	}
	ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}

func (h *Handler) respondLinkageError(ctx *gin.Context, err error) {
	var lerr *linkage.Error
	if !errors.As(err, &lerr) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	switch lerr.Kind {
	case linkage.KindInvalidAlgorithm:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "No algorithm found"})
	case linkage.KindEmptyRecord:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "empty-record"})
	case linkage.KindInvalidInput:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"detail": lerr.Detail})
	case linkage.KindConflict:
		ctx.JSON(http.StatusConflict, gin.H{"detail": lerr.Detail})
	default:
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"detail": lerr.Detail})
	}
}
