package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/batch"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// Request and response keys.
const (
	KeyFileName      = "file_name"
	KeyContentBase64 = "content_base64"
	KeyBatchID       = "batch_id"
	KeyStatus        = "status"
	KeyStrategy      = "strategy"
	KeyMessage       = "message"
	KeyTextChars     = "text_chars"
	KeyRecord        = "record"
)

// BatchRunner is satisfied by *batch.Driver.
type BatchRunner interface {
	Run(ctx context.Context, docs []core.Document) (*batch.Result, error)
}

type InvoiceService struct {
	runner   BatchRunner
	store    repository.BatchRepository
	logger   *slog.Logger
	maxBytes int
}

// NewInvoiceService builds the API handler. store may be nil.
func NewInvoiceService(runner BatchRunner, store repository.BatchRepository, maxFileMB int, logger *slog.Logger) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{
		runner:   runner,
		store:    store,
		logger:   logger,
		maxBytes: maxFileMB << 20,
	}
}

// ExtractInvoice runs one document as a single-entry batch. Per-document failures are
// reported in the response status, not as RPC errors.
func (s *InvoiceService) ExtractInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	reqID := uuid.NewString()
	ctx = common.WithRequestID(ctx, reqID)
	log := s.logger.With("req_id", reqID)

	fields := req.GetFields()
	name := strings.TrimSpace(fields[KeyFileName].GetStringValue())
	encoded := fields[KeyContentBase64].GetStringValue()
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Warn("api.extract.bad_content", "error", err)
		return nil, common.InvalidArgumentErrorf("%s must be standard base64", KeyContentBase64)
	}

	v := common.NewValidator().
		Field(KeyFileName, name, common.Required).
		Field(KeyContentBase64, data, common.Required, common.MaxBytes(s.maxBytes))
	if err := common.ValidateAndReturnError(v); err != nil {
		log.Warn("api.extract.invalid", "error", v.ErrorMessage())
		return nil, err
	}

	log.Info("api.extract.start", "document", name, "bytes", len(data))
	res, err := s.runner.Run(ctx, []core.Document{{Name: name, Data: data}})
	if err != nil {
		log.Error("api.extract.failed", "document", name, "error", err)
		return nil, common.InternalError(err.Error())
	}

	if s.store != nil {
		if err := s.store.SaveBatch(ctx, res); err != nil {
			// the extraction result is still returned
			log.Error("api.extract.persist_failed", "batch_id", res.ID, "error", err)
		}
	}

	out, err := responseFor(res)
	if err != nil {
		log.Error("api.extract.encode_failed", "error", err)
		return nil, common.InternalError(err.Error())
	}
	log.Info("api.extract.done", "document", name, "status", res.Log[0].Status, "batch_id", res.ID)
	return out, nil
}

func responseFor(res *batch.Result) (*structpb.Struct, error) {
	entry := res.Log[0]
	m := map[string]interface{}{
		KeyBatchID:   res.ID.String(),
		KeyStatus:    string(entry.Status),
		KeyStrategy:  string(entry.Strategy),
		KeyMessage:   entry.Message(),
		KeyTextChars: entry.TextChars,
	}
	if entry.Record != nil {
		body, err := entry.Record.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var rec map[string]interface{}
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, err
		}
		m[KeyRecord] = rec
	}
	return structpb.NewStruct(m)
}
