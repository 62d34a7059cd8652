package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/sharetube/smartpresent/pkg/rest"
)

const maxBlobBytes = 64 << 20

type createPresentationRequest struct {
	Owner     string `json:"owner" validate:"required,max=64"`
	FileName  string `json:"file_name" validate:"required,max=255"`
	PageCount int    `json:"page_count" validate:"min=1,max=1000"`
}

func (c controller) createPresentation(w http.ResponseWriter, r *http.Request) {
	var req createPresentationRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.presentationService.CreatePresentation(r.Context(), &presentation.CreatePresentationParams{
		Owner:     req.Owner,
		FileName:  req.FileName,
		PageCount: req.PageCount,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": resp})
}

func (c controller) getPresentation(w http.ResponseWriter, r *http.Request) {
	p, err := c.presentationService.GetPresentation(r.Context(), c.getPresentationID(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": p})
}

type configResponse struct {
	Slides playback.Deck `json:"slides"`
}

func (c controller) getConfig(w http.ResponseWriter, r *http.Request) {
	deck, err := c.presentationService.GetConfig(r.Context(), c.getPresentationID(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": configResponse{Slides: deck}})
}

type updateConfigRequest struct {
	Slides []playback.Slide `json:"slides" validate:"required,min=1,max=1000,dive"`
}

func (c controller) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.presentationService.UpdateConfig(r.Context(), &presentation.UpdateConfigParams{
		PresentationID: c.getPresentationID(r),
		Token:          c.getToken(r),
		Slides:         req.Slides,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": configResponse{Slides: req.Slides}})
}

func (c controller) uploadBlob(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlobBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rest.WriteJSON(w, http.StatusRequestEntityTooLarge, rest.Envelope{"error": "document is too large"})
			return
		}
		c.logger.DebugContext(r.Context(), "failed to read body", "error", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "failed to read body"})
		return
	}

	if err := c.presentationService.SetBlob(r.Context(), &presentation.SetBlobParams{
		PresentationID: c.getPresentationID(r),
		Token:          c.getToken(r),
		Data:           data,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) getBlob(w http.ResponseWriter, r *http.Request) {
	blob, err := c.presentationService.GetBlob(r.Context(), c.getPresentationID(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(blob))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

type indexResponse struct {
	CurrentIndex int `json:"current_index"`
}

func (c controller) getCurrentIndex(w http.ResponseWriter, r *http.Request) {
	index, err := c.presentationService.GetCurrentIndex(r.Context(), c.getPresentationID(r))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": indexResponse{CurrentIndex: index}})
}

type commandRequest struct {
	Action  string `json:"action" validate:"required,oneof=next prev pause start goto"`
	Payload string `json:"payload" validate:"required_if=Action goto,max=128"`
}

func (c controller) sendCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.presentationService.SendRemoteCommand(r.Context(), &presentation.SendRemoteCommandParams{
		PresentationID: c.getPresentationID(r),
		Token:          c.getToken(r),
		Action:         req.Action,
		Payload:        req.Payload,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
