package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	tsclient "github.com/zatekoja/clinicportal/internal/infrastructure/clients/typesense"
)

// CollectionName is the Typesense collection holding prescriptions.
const CollectionName = "prescriptions"

const maxPerPage = 100

// TypesenseAdapter indexes diagnosis sessions in Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.PrescriptionSearchProvider = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(CollectionName).Retrieve(ctx); err == nil {
		return nil
	}

	_, err := a.client.Client().Collections().Create(ctx, collectionSchema())
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

func collectionSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CollectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "patient_id", Type: "string", Facet: pointer.True()},
			{Name: "patient_name", Type: "string"},
			{Name: "doctor_username", Type: "string", Facet: pointer.True()},
			{Name: "diagnosis", Type: "string"},
			{Name: "plan", Type: "string"},
			{Name: "medication", Type: "string"},
			{Name: "dosage", Type: "string", Optional: pointer.True()},
			{Name: "days", Type: "string", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// Index upserts a prescription document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.PrescriptionDocument) error {
	_, err := a.client.Client().Collection(CollectionName).Documents().Upsert(ctx, toDocument(doc))
	if err != nil {
		return fmt.Errorf("failed to index prescription: %w", err)
	}
	return nil
}

// Delete removes a prescription from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(CollectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete prescription from index: %w", err)
	}
	return nil
}

// Search finds prescriptions by medication, diagnosis, plan or patient name.
func (a *TypesenseAdapter) Search(ctx context.Context, query, doctorUsername string, limit int) ([]*entities.PrescriptionDocument, error) {
	result, err := a.client.Client().Collection(CollectionName).Documents().Search(ctx, searchParams(query, doctorUsername, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search prescriptions: %w", err)
	}

	docs := []*entities.PrescriptionDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, fromDocument(*hit.Document))
	}
	return docs, nil
}

func searchParams(query, doctorUsername string, limit int) *api.SearchCollectionParams {
	if limit <= 0 || limit > maxPerPage {
		limit = 20
	}
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("medication,diagnosis,plan,patient_name"),
		SortBy:  pointer.String("_text_match:desc,created_at:desc"),
		PerPage: pointer.Int(limit),
	}
	if doctorUsername != "" {
		params.FilterBy = pointer.String("doctor_username:=`" + strings.ReplaceAll(doctorUsername, "`", "") + "`")
	}
	return params
}

func toDocument(doc *entities.PrescriptionDocument) map[string]interface{} {
	return map[string]interface{}{
		"id":              doc.ID,
		"patient_id":      doc.PatientID,
		"patient_name":    doc.PatientName,
		"doctor_username": doc.DoctorUsername,
		"diagnosis":       doc.Diagnosis,
		"plan":            doc.Plan,
		"medication":      doc.Medication,
		"dosage":          doc.Dosage,
		"days":            doc.Days,
		"created_at":      doc.CreatedAt.Unix(),
	}
}

func fromDocument(raw map[string]interface{}) *entities.PrescriptionDocument {
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	doc := &entities.PrescriptionDocument{
		ID:             str("id"),
		PatientID:      str("patient_id"),
		PatientName:    str("patient_name"),
		DoctorUsername: str("doctor_username"),
		Diagnosis:      str("diagnosis"),
		Plan:           str("plan"),
		Medication:     str("medication"),
		Dosage:         str("dosage"),
		Days:           str("days"),
	}
	// JSON numbers decode as float64
	if ts, ok := raw["created_at"].(float64); ok {
		doc.CreatedAt = time.Unix(int64(ts), 0).UTC()
	}
	return doc
}
