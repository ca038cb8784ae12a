package documents

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/crud"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// Service submits and loads documents of every kind.
type Service struct {
	defs      map[Kind]Definition
	resources map[Kind]*crud.Resource[Payload]
	logger    *slog.Logger
}

// NewService binds each kind to its endpoint on client. selling is the
// product price used on sales documents.
func NewService(client *apiclient.Client, selling lineitems.PriceField, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	defs := Definitions(client.Endpoints(), selling)
	resources := make(map[Kind]*crud.Resource[Payload], len(defs))
	for kind, def := range defs {
		resources[kind] = crud.NewResource[Payload](client, def.Path)
	}
	return &Service{defs: defs, resources: resources, logger: logger}
}

// Definition returns the definition of kind.
func (s *Service) Definition(kind Kind) (Definition, error) {
	def, ok := s.defs[kind]
	if !ok {
		return Definition{}, ErrUnknownKind
	}
	return def, nil
}

// Submit validates and creates a document. Attachments switch the request
// to multipart.
func (s *Service) Submit(ctx context.Context, p Payload, files []apiclient.Attachment) (Payload, error) {
	res, err := s.resource(p.Kind)
	if err != nil {
		return p, err
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	var out Payload
	if len(files) > 0 {
		out, err = res.CreateMultipart(ctx, p, files)
	} else {
		out, err = res.Create(ctx, p)
	}
	if err != nil {
		return p, err
	}
	s.logger.Info("document submitted",
		slog.String("kind", string(p.Kind)),
		slog.String("id", string(out.ID)),
		slog.String("net_total", p.Summary.NetTotal))
	return out, nil
}

// Update validates and replaces the stored document p.ID.
func (s *Service) Update(ctx context.Context, p Payload) (Payload, error) {
	res, err := s.resource(p.Kind)
	if err != nil {
		return p, err
	}
	if p.ID == "" {
		return p, crud.ErrMissingID
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	out, err := res.Update(ctx, string(p.ID), p)
	if err != nil {
		return p, err
	}
	s.logger.Info("document updated", slog.String("kind", string(p.Kind)), slog.String("id", string(p.ID)))
	return out, nil
}

// Load fetches a stored document so it can be edited.
func (s *Service) Load(ctx context.Context, kind Kind, id lineitems.ID) (Payload, error) {
	res, err := s.resource(kind)
	if err != nil {
		return Payload{}, err
	}
	p, err := res.Get(ctx, string(id))
	if err != nil {
		return Payload{}, err
	}
	p.Kind = kind
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

func (s *Service) resource(kind Kind) (*crud.Resource[Payload], error) {
	res, ok := s.resources[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return res, nil
}
