package controllers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"school_transport/internal/kiosk"
	"school_transport/internal/media"
	"school_transport/internal/precheck"
	"school_transport/internal/session"
)

// KioskController is the HTTP face of the scan-to-start flow.
type KioskController struct {
	registry *kiosk.Registry
	staging  *media.Staging
	maxChunk int64
}

func NewKioskController(registry *kiosk.Registry, staging *media.Staging) *KioskController {
	return &KioskController{registry: registry, staging: staging, maxChunk: 8 << 20}
}

type workspaceView struct {
	WorkspaceID    string                  `json:"workspace_id"`
	State          session.State           `json:"state"`
	Driver         *session.Driver         `json:"driver"`
	ActiveSessions []session.ActiveSession `json:"active_sessions"`
}

func viewWorkspace(w *kiosk.Workspace) workspaceView {
	o := w.Orchestrator()
	active := o.ActiveSessions()
	if active == nil {
		active = []session.ActiveSession{}
	}
	return workspaceView{
		WorkspaceID:    w.ID,
		State:          o.State(),
		Driver:         o.Driver(),
		ActiveSessions: active,
	}
}

type precheckView struct {
	State       precheck.State        `json:"state"`
	Checklist   precheck.Checklist    `json:"checklist"`
	Complete    bool                  `json:"all_checks_complete"`
	Missing     []precheck.Field      `json:"missing"`
	Attachments []precheck.Attachment `json:"media"`
}

func viewForm(f *precheck.Form) precheckView {
	cl := f.Checklist()
	att := f.Media()
	if att == nil {
		att = []precheck.Attachment{}
	}
	return precheckView{
		State:       f.State(),
		Checklist:   cl,
		Complete:    cl.Complete(),
		Missing:     cl.Missing(),
		Attachments: att,
	}
}

// kioskError maps flow errors onto status codes.
func kioskError(c *gin.Context, err error) {
	var perr *session.ProcedureError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &perr):
		status = http.StatusConflict
	case errors.Is(err, kiosk.ErrWorkspaceNotFound),
		errors.Is(err, session.ErrDriverNotFound),
		errors.Is(err, session.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidType),
		errors.Is(err, session.ErrConfirmationRequired),
		errors.Is(err, precheck.ErrUnknownField),
		errors.Is(err, precheck.ErrIncomplete),
		errors.Is(err, precheck.ErrMediaIndex),
		errors.Is(err, precheck.ErrInvalidMediaKind),
		errors.Is(err, media.ErrFileTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNotReady),
		errors.Is(err, session.ErrNoPendingPreCheck),
		errors.Is(err, session.ErrAlreadyReported),
		errors.Is(err, kiosk.ErrNoPreCheck),
		errors.Is(err, precheck.ErrNotEditable),
		errors.Is(err, precheck.ErrNotRecording),
		errors.Is(err, precheck.ErrAlreadyRecording),
		errors.Is(err, precheck.ErrAlreadySubmitting),
		errors.Is(err, precheck.ErrRecordingInFlight):
		status = http.StatusConflict
	case errors.Is(err, media.ErrCaptureUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, session.ErrMalformedResponse):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("kiosk request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (k *KioskController) workspace(c *gin.Context) (*kiosk.Workspace, bool) {
	w, err := k.registry.Get(c.Param("ws"))
	if err != nil {
		kioskError(c, err)
		return nil, false
	}
	return w, true
}

func (k *KioskController) form(c *gin.Context) (*precheck.Form, bool) {
	w, ok := k.workspace(c)
	if !ok {
		return nil, false
	}
	f, err := w.PreCheck()
	if err != nil {
		kioskError(c, err)
		return nil, false
	}
	return f, true
}

// Scan resolves a QR token into a new workspace.
func (k *KioskController) Scan(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := k.registry.Open(c.Request.Context(), body.Token)
	if err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewWorkspace(w))
}

func (k *KioskController) Show(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewWorkspace(w))
}

func (k *KioskController) ChooseSession(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	var body struct {
		SessionType string `json:"session_type" binding:"required,session_type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := session.ParseType(body.SessionType)
	if err != nil {
		kioskError(c, err)
		return
	}
	dec, err := w.ChooseSession(c.Request.Context(), t)
	if err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, dec)
}

func (k *KioskController) PreCheck(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewForm(f))
}

func (k *KioskController) Toggle(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	var body struct {
		Field precheck.Field `json:"field" binding:"required,checklist_field"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := f.Toggle(body.Field); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewForm(f))
}

func (k *KioskController) Notes(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	var body struct {
		Notes       string `json:"notes" binding:"max=2000"`
		IssuesFound string `json:"issues_found" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := f.SetNotes(body.Notes, body.IssuesFound); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewForm(f))
}

func (k *KioskController) StartRecording(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	if err := f.StartRecording(c.Request.Context()); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewForm(f))
}

// RecordingChunk appends the raw request body to the recording.
func (k *KioskController) RecordingChunk(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	chunk, err := io.ReadAll(io.LimitReader(c.Request.Body, k.maxChunk+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read chunk"})
		return
	}
	if int64(len(chunk)) > k.maxChunk {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "chunk too large"})
		return
	}
	if err := f.WriteRecording(chunk); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": len(chunk)})
}

func (k *KioskController) StopRecording(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	att, err := f.StopRecording()
	if err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachment": att, "precheck": viewForm(f)})
}

// AddMedia stages multipart "files" of the given kind and appends them.
func (k *KioskController) AddMedia(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	kind := media.Kind(c.DefaultPostForm("kind", string(media.Image)))
	if !kind.Valid() {
		kioskError(c, precheck.ErrInvalidMediaKind)
		return
	}
	mf, err := c.MultipartForm()
	if err != nil || len(mf.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}
	headers := mf.File["files"]
	if kind == media.Video && len(headers) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "select exactly one video"})
		return
	}

	// Stage every upload before touching the form.
	staged := make([]media.File, 0, len(headers))
	discard := func() {
		for _, s := range staged {
			os.Remove(s.Path)
		}
	}
	for _, h := range headers {
		file, err := k.stage(h)
		if err != nil {
			discard()
			kioskError(c, err)
			return
		}
		staged = append(staged, file)
	}

	var added []precheck.Attachment
	if kind == media.Video {
		var a precheck.Attachment
		if a, err = f.SelectVideoFile(staged[0]); err == nil {
			added = []precheck.Attachment{a}
		}
	} else {
		added, err = f.SelectImageFiles(staged)
	}
	if err != nil {
		// files already attached now belong to the form
		staged = staged[len(added):]
		discard()
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "precheck": viewForm(f)})
}

func (k *KioskController) stage(h *multipart.FileHeader) (media.File, error) {
	src, err := h.Open()
	if err != nil {
		return media.File{}, err
	}
	defer src.Close()
	return k.staging.Save(h.Filename, h.Header.Get("Content-Type"), src)
}

func (k *KioskController) RemoveMedia(c *gin.Context) {
	f, ok := k.form(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		kioskError(c, precheck.ErrMediaIndex)
		return
	}
	if err := f.RemoveMedia(idx); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewForm(f))
}

// Preview serves a staged attachment by its preview handle.
func (k *KioskController) Preview(c *gin.Context) {
	path, ok := k.staging.Lookup(c.Param("handle"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.File(path)
}

func (k *KioskController) SubmitPreCheck(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	started, data, err := w.SubmitPreCheck(c.Request.Context())
	if err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"started":     started,
		"media_count": len(data.MediaURLs),
		"workspace":   viewWorkspace(w),
	})
}

func (k *KioskController) CancelPreCheck(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	if err := w.CancelPreCheck(); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewWorkspace(w))
}

func (k *KioskController) EndSession(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := w.Orchestrator().EndSession(c.Request.Context(), id, body.Confirm); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewWorkspace(w))
}

func (k *KioskController) ReportBreakdown(c *gin.Context) {
	w, ok := k.workspace(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Description string `json:"description" binding:"required,max=2000"`
		Location    string `json:"location" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := w.Orchestrator().ReportBreakdown(c.Request.Context(), id, body.Description, body.Location); err != nil {
		kioskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (k *KioskController) Close(c *gin.Context) {
	if err := k.registry.Close(c.Param("ws")); err != nil {
		kioskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
