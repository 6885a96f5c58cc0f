package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/portal/internal/account/entity"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/storage"
)

// Invoice returns a short lived download link for the order's PDF. The PDF is
// fetched from the backend once and kept in object storage afterwards.
func (s *Usecase) Invoice(ctx context.Context, in OrderInput) (*entity.Invoice, error) {
	ctx, span := s.startSpan(ctx, "Invoice")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	sess, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	key := "invoices/" + sess.User.ID + "/" + in.ID + ".pdf"

	cached, err := s.storage.Exists(ctx, key)
	if err == nil && !cached {
		pdf, ferr := s.backend.Invoice(ctx, sess.BackendToken, in.ID)
		if ferr != nil {
			return nil, backendError(ctx, "Invoice", ferr, "Factura no disponible")
		}

		err = s.storage.Put(ctx, key, storage.Document{
			Body:        pdf,
			ContentType: "application/pdf",
			Metadata:    map[string]string{"order-id": in.ID},
		})
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to cache invoice", "order_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	url, err := s.storage.Link(ctx, key, storage.LinkOptions{
		TTL:      s.invoiceLinkTTL,
		Filename: "factura-" + in.ID + ".pdf",
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign invoice", "order_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &entity.Invoice{URL: url, ExpiresAt: s.clock.Now().Add(s.invoiceLinkTTL)}, nil
}
