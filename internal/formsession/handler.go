package formsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/crud"
	"github.com/odyssey-erp/odyssey-console/internal/documents"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
	"github.com/odyssey-erp/odyssey-console/internal/masterdata"
	"github.com/odyssey-erp/odyssey-console/internal/pagination"
	"github.com/odyssey-erp/odyssey-console/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-console/internal/search"
	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

const (
	maxUploadMemory    = 32 << 20
	maxUploadBytes     = 64 << 20
	defaultSearchField = "name"
	submitModule       = "form-submit"
	idempotencyHeader  = "Idempotency-Key"
)

// Registry resolves list resources, master-data editors and lookup sources.
type Registry interface {
	Raw(name string) (*crud.Resource[map[string]any], bool)
	Editor(name string, pageSize int) (*crud.ListView[map[string]any], error)
	InvalidateLookups(ctx context.Context) error
	Lookups() lineitems.LookupSource
}

// DocumentService loads and submits documents.
type DocumentService interface {
	Definition(kind documents.Kind) (documents.Definition, error)
	Submit(ctx context.Context, p documents.Payload, files []apiclient.Attachment) (documents.Payload, error)
	Update(ctx context.Context, p documents.Payload) (documents.Payload, error)
	Load(ctx context.Context, kind documents.Kind, id lineitems.ID) (documents.Payload, error)
}

// SubmitGuard rejects replayed submissions carrying the same key.
type SubmitGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Handler serves lists, searches and form sessions.
type Handler struct {
	logger   *slog.Logger
	registry Registry
	docs     DocumentService
	store    *Store
	pageSize int
	newID    func() string
	guard    SubmitGuard
	seqs     *sequencers
	maxBody  int64
}

// NewHandler constructs the form session HTTP handler.
func NewHandler(logger *slog.Logger, registry Registry, docs DocumentService, store *Store, pageSize int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	h := &Handler{
		logger:   logger,
		registry: registry,
		docs:     docs,
		store:    store,
		pageSize: pageSize,
		newID:    uuid.NewString,
		maxBody:  maxUploadBytes,
		seqs:     newSequencers(store.TTL(), maxSequencers, store.clock),
	}
	store.OnSweep(func() { h.seqs.sweep() })
	return h
}

// WithSubmitGuard enables Idempotency-Key handling on submit.
func (h *Handler) WithSubmitGuard(guard SubmitGuard) *Handler {
	h.guard = guard
	return h
}

// WithUploadLimit caps the size of multipart request bodies.
func (h *Handler) WithUploadLimit(n int64) *Handler {
	if n > 0 {
		h.maxBody = n
	}
	return h
}

type lookupFailure struct {
	Lookup  string `json:"lookup"`
	Message string `json:"message"`
}

type formView struct {
	ID           string               `json:"id"`
	Kind         documents.Kind       `json:"kind"`
	DocumentID   lineitems.ID         `json:"documentId,omitempty"`
	PriceField   lineitems.PriceField `json:"priceField"`
	Header       documents.Header     `json:"header"`
	Items        []lineitems.LineItem `json:"items"`
	Summary      lineitems.Summary    `json:"summary"`
	Lookups      *lineitems.Lookups   `json:"lookups,omitempty"`
	LookupErrors []lookupFailure      `json:"lookupErrors,omitempty"`
}

type rowView struct {
	Item    lineitems.LineItem `json:"item"`
	Summary lineitems.Summary  `json:"summary"`
}

type recordView struct {
	Record map[string]any                   `json:"record,omitempty"`
	Page   *pagination.Page[map[string]any] `json:"page,omitempty"`
}

type searchView struct {
	Seq  uint64                          `json:"seq"`
	Page pagination.Page[map[string]any] `json:"page"`
}

func (h *Handler) view(sess *Session, withLookups bool) formView {
	v := formView{
		ID:         sess.ID,
		Kind:       sess.Kind,
		DocumentID: sess.DocumentID(),
		PriceField: sess.Engine.PriceField(),
		Header:     sess.Header(),
		Items:      sess.Engine.Items(),
		Summary:    sess.Engine.Summary(),
	}
	if withLookups {
		l := sess.Engine.Lookups()
		v.Lookups = &l
	}
	for _, f := range sess.LookupFailures() {
		v.LookupErrors = append(v.LookupErrors, lookupFailure{Lookup: f.Lookup, Message: apiclient.UserMessage(f.Err)})
	}
	return v
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	res, ok := h.registry.Raw(chi.URLParam(r, "resource"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown resource %q", httpx.ErrNotFound, chi.URLParam(r, "resource")))
		return
	}
	page, size, err := h.parsePaging(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := res.List(r.Context(), nil)
	if err != nil {
		h.fail(w, "list resource", err)
		return
	}
	pager, err := pagination.New(items, size, pagination.MapAccessor)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	for key, values := range r.URL.Query() {
		if field, ok := strings.CutPrefix(key, "q."); ok && field != "" && len(values) > 0 {
			pager.SetSearchTerm(field, values[0])
		}
	}
	pager.GoToPage(page)
	httpx.JSON(w, http.StatusOK, pager.Snapshot())
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	view, _, ok := h.editor(w, r)
	if !ok {
		return
	}
	record, files, cleanup, err := h.parseRecord(w, r)
	if err != nil {
		h.badBody(w, err)
		return
	}
	defer cleanup()
	out, err := view.Create(r.Context(), record, files)
	h.recordWritten(w, r, http.StatusCreated, view, out, err, "create record")
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	view, page, ok := h.editor(w, r)
	if !ok {
		return
	}
	var record map[string]any
	if err := httpx.DecodeJSON(r, &record); err != nil {
		h.badBody(w, err)
		return
	}
	out, err := view.Update(r.Context(), chi.URLParam(r, "id"), record)
	view.Pager().GoToPage(page)
	h.recordWritten(w, r, http.StatusOK, view, out, err, "update record")
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	view, page, ok := h.editor(w, r)
	if !ok {
		return
	}
	err := view.Delete(r.Context(), chi.URLParam(r, "id"))
	view.Pager().GoToPage(page)
	h.recordWritten(w, r, http.StatusOK, view, nil, err, "delete record")
}

func (h *Handler) editor(w http.ResponseWriter, r *http.Request) (*crud.ListView[map[string]any], int, bool) {
	page, size, err := h.parsePaging(r)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, 0, false
	}
	view, err := h.registry.Editor(chi.URLParam(r, "resource"), size)
	switch {
	case errors.Is(err, masterdata.ErrUnknownResource):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		return nil, 0, false
	case errors.Is(err, masterdata.ErrNotEditable):
		httpx.Problem(w, http.StatusMethodNotAllowed, "Not Editable", err.Error())
		return nil, 0, false
	case err != nil:
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return nil, 0, false
	}
	return view, page, true
}

// recordWritten answers a master-data write. A failed list reload after a
// successful write still answers success, without the page.
func (h *Handler) recordWritten(w http.ResponseWriter, r *http.Request, status int, view *crud.ListView[map[string]any], record map[string]any, err error, op string) {
	if err != nil && !errors.Is(err, crud.ErrRefresh) {
		h.fail(w, op, err)
		return
	}
	if ierr := h.registry.InvalidateLookups(r.Context()); ierr != nil {
		h.logger.Warn("invalidate lookups", slog.Any("error", ierr))
	}
	out := recordView{Record: record}
	if err != nil {
		h.logger.Warn(op+": list reload failed", slog.Any("error", err))
	} else {
		page := view.Page()
		out.Page = &page
	}
	httpx.JSON(w, status, out)
}

// parseRecord reads a record from a JSON body, or from the payload field of
// a multipart body together with its attachments.
func (h *Handler) parseRecord(w http.ResponseWriter, r *http.Request) (map[string]any, []apiclient.Attachment, func(), error) {
	var record map[string]any
	if !isMultipart(r) {
		if err := httpx.DecodeJSON(r, &record); err != nil {
			return nil, nil, func() {}, err
		}
		return record, nil, func() {}, nil
	}
	files, cleanup, err := h.parseUpload(w, r)
	if err != nil {
		return nil, nil, cleanup, err
	}
	if err := json.Unmarshal([]byte(r.FormValue(apiclient.PayloadField)), &record); err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	return record, files, cleanup, nil
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")
	res, ok := h.registry.Raw(name)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: unknown resource %q", httpx.ErrNotFound, name))
		return
	}
	query := r.URL.Query()
	seq, err := strconv.ParseUint(query.Get("seq"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: seq must be a positive integer", httpx.ErrBadRequest))
		return
	}
	_, size, err := h.parsePaging(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	field := query.Get("field")
	if field == "" {
		field = defaultSearchField
	}

	sequencer := h.seqs.get(name + "|" + query.Get("client"))
	if !sequencer.Admit(seq) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, search.ErrStale))
		return
	}
	items, err := res.List(r.Context(), nil)
	if err != nil {
		h.fail(w, "search resource", err)
		return
	}
	if !sequencer.Latest(seq) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, search.ErrStale))
		return
	}
	pager, err := pagination.New(items, size, pagination.MapAccessor)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	pager.SetSearchTerm(field, query.Get("q"))
	httpx.JSON(w, http.StatusOK, searchView{Seq: seq, Page: pager.Snapshot()})
}

func (h *Handler) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind       string       `json:"kind"`
		PriceField string       `json:"priceField,omitempty"`
		DocumentID lineitems.ID `json:"documentId,omitempty"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	kind, err := documents.ParseKind(req.Kind)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	def, err := h.docs.Definition(kind)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	field := def.PriceField
	if req.PriceField != "" {
		if field, err = lineitems.ParsePriceField(req.PriceField); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
			return
		}
	}

	var (
		initial []lineitems.LineItem
		header  documents.Header
	)
	if req.DocumentID != "" {
		doc, err := h.docs.Load(r.Context(), kind, req.DocumentID)
		if err != nil {
			h.fail(w, "load document", err)
			return
		}
		initial, header = doc.Lines, doc.Header
	}
	engine, err := lineitems.NewEngine(initial, field)
	if err != nil {
		h.fail(w, "create engine", err)
		return
	}
	sess := &Session{ID: h.newID(), Kind: kind, Engine: engine, docID: req.DocumentID, header: header}
	sess.setFailures(engine.Reload(r.Context(), h.registry.Lookups(), h.logger))
	h.store.Put(sess)
	h.logger.Info("form session opened", slog.String("session", sess.ID), slog.String("kind", string(kind)))
	httpx.JSON(w, http.StatusCreated, h.view(sess, true))
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(sess, true))
}

func (h *Handler) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "formID")) {
		httpx.RespondError(w, fmt.Errorf("%w: form session", httpx.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	item := sess.Engine.AddRow()
	httpx.JSON(w, http.StatusCreated, rowView{Item: item, Summary: sess.Engine.Summary()})
}

func (h *Handler) handleRemoveRow(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if !sess.Engine.RemoveRow(rowID(r)) {
		h.fail(w, "remove row", fmt.Errorf("%w: %s", lineitems.ErrItemNotFound, rowID(r)))
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(sess, false))
}

func (h *Handler) handleChangeField(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		httpx.RespondError(w, fmt.Errorf("%w: field is required", httpx.ErrBadRequest))
		return
	}
	item, err := sess.Engine.ChangeField(rowID(r), lineitems.Field(req.Field), req.Value)
	if err != nil {
		h.fail(w, "change field", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rowView{Item: item, Summary: sess.Engine.Summary()})
}

// handleSelect resolves {code} against the session lookups for one lookup kind.
func (h *Handler) handleSelect(lookup string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.session(w, r)
		if !ok {
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
			return
		}
		item, err := selectLookup(sess.Engine, lookup, rowID(r), req.Code)
		if err != nil {
			h.fail(w, "select "+lookup, err)
			return
		}
		httpx.JSON(w, http.StatusOK, rowView{Item: item, Summary: sess.Engine.Summary()})
	}
}

func selectLookup(engine *lineitems.Engine, lookup string, id lineitems.ID, code string) (lineitems.LineItem, error) {
	lookups := engine.Lookups()
	notLoaded := fmt.Errorf("%w: %s %q is not loaded", httpx.ErrNotFound, lookup, code)
	switch lookup {
	case lineitems.LookupProducts:
		p, ok := lookups.FindProduct(code)
		if !ok {
			return lineitems.LineItem{}, notLoaded
		}
		return engine.SelectProduct(id, p)
	case lineitems.LookupUOMs:
		u, ok := lookups.FindUOM(code)
		if !ok {
			return lineitems.LineItem{}, notLoaded
		}
		return engine.SelectUOM(id, u)
	case lineitems.LookupWarehouses:
		wh, ok := lookups.FindWarehouse(code)
		if !ok {
			return lineitems.LineItem{}, notLoaded
		}
		return engine.SelectWarehouse(id, wh)
	case lineitems.LookupTaxCodes:
		t, ok := lookups.FindTax(code)
		if !ok {
			return lineitems.LineItem{}, notLoaded
		}
		return engine.SelectTax(id, t)
	default:
		return lineitems.LineItem{}, fmt.Errorf("%w: unknown lookup %s", httpx.ErrBadRequest, lookup)
	}
}

func (h *Handler) handleReloadLookups(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.setFailures(sess.Engine.Reload(r.Context(), h.registry.Lookups(), h.logger))
	httpx.JSON(w, http.StatusOK, h.view(sess, true))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	header, files, cleanup, err := h.parseSubmission(w, r)
	if err != nil {
		h.badBody(w, err)
		return
	}
	defer cleanup()
	if header == (documents.Header{}) {
		header = sess.Header()
	}
	key, ok := h.claimSubmission(w, r)
	if !ok {
		return
	}

	payload := documents.BuildPayload(sess.Kind, sess.DocumentID(), header, sess.Engine)
	status := http.StatusCreated
	var out documents.Payload
	if payload.ID != "" {
		status = http.StatusOK
		out, err = h.docs.Update(r.Context(), payload)
	} else {
		out, err = h.docs.Submit(r.Context(), payload, files)
	}
	if err != nil {
		h.releaseSubmission(r.Context(), key)
		h.fail(w, "submit document", err)
		return
	}
	sess.setHeader(header)
	if out.ID != "" {
		sess.setDocumentID(out.ID)
	}
	httpx.JSON(w, status, h.view(sess, false))
}

// claimSubmission records the request's idempotency key. A key seen before
// answers 409. Guard outages are logged and the submission proceeds.
func (h *Handler) claimSubmission(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" || h.guard == nil {
		return "", true
	}
	err := h.guard.CheckAndInsert(r.Context(), key, submitModule)
	switch {
	case err == nil:
		return key, true
	case errors.Is(err, cache.ErrIdempotencyConflict):
		httpx.RespondError(w, fmt.Errorf("%w: submission %s already processed", httpx.ErrConflict, key))
		return "", false
	default:
		h.logger.Warn("idempotency check failed", slog.String("key", key), slog.Any("error", err))
		return "", true
	}
}

func (h *Handler) releaseSubmission(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.guard.Delete(context.WithoutCancel(ctx), key, submitModule); err != nil {
		h.logger.Warn("idempotency release failed", slog.String("key", key), slog.Any("error", err))
	}
}

// parseSubmission reads the header from a JSON body, or from the "header"
// field of a multipart body together with its attachments.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (documents.Header, []apiclient.Attachment, func(), error) {
	var body struct {
		Header documents.Header `json:"header"`
	}
	if !isMultipart(r) {
		if err := httpx.DecodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
			return documents.Header{}, nil, func() {}, err
		}
		return body.Header, nil, func() {}, nil
	}
	files, cleanup, err := h.parseUpload(w, r)
	if err != nil {
		return documents.Header{}, nil, cleanup, err
	}
	if raw := r.FormValue("header"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &body.Header); err != nil {
			cleanup()
			return documents.Header{}, nil, func() {}, err
		}
	}
	return body.Header, files, cleanup, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseUpload parses a size-limited multipart body and opens its attachments.
// The returned cleanup closes the files and removes temporary copies; on
// error it has already run.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) ([]apiclient.Attachment, func(), error) {
	noop := func() {}
	if r.ContentLength > h.maxBody {
		return nil, noop, &http.MaxBytesError{Limit: h.maxBody}
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
		return nil, noop, err
	}
	var (
		files  []apiclient.Attachment
		opened []multipart.File
	)
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}
	for _, fh := range r.MultipartForm.File[apiclient.AttachmentField] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		opened = append(opened, f)
		files = append(files, apiclient.Attachment{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return files, cleanup, nil
}

// badBody answers 413 for oversized bodies and 400 for anything unreadable.
func (h *Handler) badBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := h.store.Get(chi.URLParam(r, "formID"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: form session expired or unknown", httpx.ErrNotFound))
		return nil, false
	}
	return sess, true
}

func (h *Handler) parsePaging(r *http.Request) (int, int, error) {
	page, size := 1, h.pageSize
	query := r.URL.Query()
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: page must be an integer", httpx.ErrBadRequest)
		}
		page = n
	}
	if raw := query.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("%w: size must be a positive integer", httpx.ErrBadRequest)
		}
		size = n
	}
	return page, size, nil
}

// fail maps engine, document and backend errors onto problem responses.
// Backend rejections keep their 4xx status so the caller sees the message.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
		h.logger.Warn(op+" rejected by backend", slog.Int("status", apiErr.Status), slog.String("message", apiErr.Message))
		httpx.Problem(w, status, "Backend Rejected Request", apiErr.Message)
	case errors.Is(err, apiclient.ErrTransport), errors.Is(err, apiclient.ErrDecode), errors.Is(err, context.DeadlineExceeded):
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUpstream, apiclient.UserMessage(err)))
	case errors.Is(err, lineitems.ErrItemNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, lineitems.ErrReadOnlyField), errors.Is(err, documents.ErrUnknownKind), errors.Is(err, crud.ErrMissingID):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
	case errors.Is(err, validation.ErrValidation), errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrBadRequest):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func rowID(r *http.Request) lineitems.ID {
	return lineitems.ID(chi.URLParam(r, "rowID"))
}
