package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/Danielhyunyoo/WellsFargoTransactionTracker/internal/model"
)

const (
	// Standard Azurite account name and key
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

	tablePartition = "transactions"
)

// TableStore keeps transactions in Azure Table Storage, one entity per record
// in a single partition. Row keys are zero-padded ids so they list in order.
type TableStore struct {
	client *aztables.Client

	mu     sync.Mutex
	nextID int64
}

type tableEntity struct {
	PartitionKey      string
	RowKey            string
	Date              string
	Description       string
	Amount            string
	CustomDescription string
}

// OpenTableStore connects to the table service at serviceURL and ensures
// tableName exists. URLs starting with http are treated as Azurite.
func OpenTableStore(ctx context.Context, serviceURL, tableName string) (*TableStore, error) {
	svc, err := newTableServiceClient(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if _, err := svc.CreateTable(ctx, tableName, nil); err != nil {
		var azErr *azcore.ResponseError
		if !errors.As(err, &azErr) || azErr.ErrorCode != "TableAlreadyExists" {
			return nil, fmt.Errorf("%w: creating table %s: %v", ErrUnavailable, tableName, err)
		}
	}

	s := &TableStore{client: svc.NewClient(tableName)}
	recs, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.nextID = maxID(recs) + 1
	return s, nil
}

func newTableServiceClient(serviceURL string) (*aztables.ServiceClient, error) {
	if strings.HasPrefix(serviceURL, "http://") {
		cred, err := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("creating shared key credential: %w", err)
		}
		return aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating default azure credential: %w", err)
	}
	return aztables.NewServiceClient(serviceURL, cred, nil)
}

func (s *TableStore) GetAll(ctx context.Context) ([]model.Transaction, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", tablePartition)
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

	var out []model.Transaction
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing transactions: %w", err)
		}
		for _, raw := range resp.Entities {
			var e tableEntity
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("decoding entity: %w", err)
			}
			id, err := strconv.ParseInt(e.RowKey, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing row key %q: %w", e.RowKey, err)
			}
			out = append(out, model.Transaction{
				ID:                id,
				Date:              e.Date,
				Description:       e.Description,
				Amount:            e.Amount,
				CustomDescription: e.CustomDescription,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// insertAttempts bounds retries when another session took the next id.
const insertAttempts = 5

// Insert adds rec under the next free id. When another session has taken that
// id the table is re-read and the insert retried.
func (s *TableStore) Insert(ctx context.Context, rec model.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		rec.ID = s.nextID
		data, err := json.Marshal(toEntity(rec))
		if err != nil {
			return 0, fmt.Errorf("encoding entity: %w", err)
		}
		_, err = s.client.AddEntity(ctx, data, nil)
		if err == nil {
			s.nextID++
			return rec.ID, nil
		}
		if !isEntityConflict(err) || attempt == insertAttempts {
			return 0, fmt.Errorf("adding transaction: %w", err)
		}
		recs, err := s.GetAll(ctx)
		if err != nil {
			return 0, err
		}
		s.nextID = maxID(recs) + 1
	}
}

func isEntityConflict(err error) bool {
	var azErr *azcore.ResponseError
	return errors.As(err, &azErr) && azErr.ErrorCode == "EntityAlreadyExists"
}

func (s *TableStore) Update(ctx context.Context, rec model.Transaction) error {
	if !rec.HasID() {
		return ErrNoID
	}
	data, err := json.Marshal(toEntity(rec))
	if err != nil {
		return fmt.Errorf("encoding entity: %w", err)
	}
	// Update (not upsert) so an unknown id surfaces as an error.
	if _, err := s.client.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.StatusCode == 404 {
			return fmt.Errorf("%w: id %d", ErrNotFound, rec.ID)
		}
		return fmt.Errorf("updating transaction %d: %w", rec.ID, err)
	}
	return nil
}

func (s *TableStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, t := range recs {
		if _, err := s.client.DeleteEntity(ctx, tablePartition, rowKey(t.ID), nil); err != nil {
			return fmt.Errorf("deleting transaction %d: %w", t.ID, err)
		}
	}
	s.nextID = 1
	return nil
}

func (s *TableStore) Close() error { return nil }

func toEntity(t model.Transaction) tableEntity {
	return tableEntity{
		PartitionKey:      tablePartition,
		RowKey:            rowKey(t.ID),
		Date:              t.Date,
		Description:       t.Description,
		Amount:            t.Amount,
		CustomDescription: t.CustomDescription,
	}
}

func rowKey(id int64) string {
	return fmt.Sprintf("%019d", id)
}
