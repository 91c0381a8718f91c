// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/models"
)

// mongoAccountRepository implements [Repository] over one document per
// owner. Atomicity comes from single-document updates; the keyed mutex only
// keeps same-owner writers of this process in order.
type mongoAccountRepository struct {
	*MongoDB
	locks *utils.KeyedMutex
	now   func() time.Time
}

// NewMongoAccountRepository constructs the MongoDB account repository.
func NewMongoAccountRepository(db *MongoDB, locks *utils.KeyedMutex) Repository {
	return &mongoAccountRepository{
		MongoDB: db,
		locks:   locks,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// UpsertAndActivate implements [AccountRepository].
func (r *mongoAccountRepository) UpsertAndActivate(ctx context.Context, ownerID int64, label, token string, secret models.SecretMaterial) error {
	if label == "" {
		return ErrEmptyLabel
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	_, err := r.collection.UpdateOne(ctx,
		ownerFilter(ownerID),
		upsertActivePipeline(label, token, secret, r.now()),
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.UpsertAndActivate", ownerID)
	}
	return nil
}

// GetActive implements [AccountRepository].
func (r *mongoAccountRepository) GetActive(ctx context.Context, ownerID int64) (models.Identity, bool, error) {
	doc, found, err := r.findOwner(ctx, ownerID)
	if err != nil {
		return models.Identity{}, false, r.fail(ctx, err, "mongoAccountRepository.GetActive", ownerID)
	}
	if !found {
		return models.Identity{}, false, nil
	}

	identity, ok := doc.activeIdentity()
	return identity, ok, nil
}

// Get implements [AccountRepository].
func (r *mongoAccountRepository) Get(ctx context.Context, ownerID int64, label string) (models.Identity, bool, error) {
	doc, found, err := r.findOwner(ctx, ownerID)
	if err != nil {
		return models.Identity{}, false, r.fail(ctx, err, "mongoAccountRepository.Get", ownerID)
	}
	if !found {
		return models.Identity{}, false, nil
	}

	identity, ok := doc.identityByLabel(label)
	return identity, ok, nil
}

// List implements [AccountRepository].
func (r *mongoAccountRepository) List(ctx context.Context, ownerID int64) ([]models.AccountSummary, error) {
	doc, found, err := r.findOwner(ctx, ownerID)
	if err != nil {
		return nil, r.fail(ctx, err, "mongoAccountRepository.List", ownerID)
	}
	if !found {
		return []models.AccountSummary{}, nil
	}
	return doc.summaries(), nil
}

// SetActive implements [AccountRepository].
func (r *mongoAccountRepository) SetActive(ctx context.Context, ownerID int64, label string) error {
	if label == "" {
		return ErrNotFound
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	res, err := r.collection.UpdateOne(ctx, ownerAccountFilter(ownerID, label), setActiveUpdate(label))
	if err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.SetActive", ownerID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements [AccountRepository].
func (r *mongoAccountRepository) Delete(ctx context.Context, ownerID int64, label string) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	if _, err := r.collection.UpdateOne(ctx, ownerFilter(ownerID), deletePipeline(label)); err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.Delete", ownerID)
	}
	return nil
}

// DeleteAll implements [AccountRepository].
func (r *mongoAccountRepository) DeleteAll(ctx context.Context, ownerID int64) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	if _, err := r.collection.DeleteOne(ctx, ownerFilter(ownerID)); err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.DeleteAll", ownerID)
	}
	return nil
}

// HasAny implements [AccountRepository].
func (r *mongoAccountRepository) HasAny(ctx context.Context, ownerID int64) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, hasAnyFilter(ownerID), options.Count().SetLimit(1))
	if err != nil {
		return false, r.fail(ctx, err, "mongoAccountRepository.HasAny", ownerID)
	}
	return n > 0, nil
}

// UpdateToken implements [AccountRepository].
func (r *mongoAccountRepository) UpdateToken(ctx context.Context, ownerID int64, label, token string) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	res, err := r.collection.UpdateOne(ctx, ownerAccountFilter(ownerID, label), updateTokenUpdate(token, r.now()))
	if err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.UpdateToken", ownerID)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSecrets implements [SecretRepository].
func (r *mongoAccountRepository) ListSecrets(ctx context.Context) ([]models.SecretRecord, error) {
	cursor, err := r.collection.Find(ctx, listSecretsFilter())
	if err != nil {
		return nil, r.fail(ctx, err, "mongoAccountRepository.ListSecrets", 0)
	}

	var docs []ownerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, r.fail(ctx, err, "mongoAccountRepository.ListSecrets", 0)
	}

	records := make([]models.SecretRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.secretRecords()...)
	}
	return records, nil
}

// ReplaceSecret implements [SecretRepository].
func (r *mongoAccountRepository) ReplaceSecret(ctx context.Context, ownerID int64, label string, from, to models.SecretMaterial) error {
	unlock := r.locks.Lock(ownerID)
	defer unlock()

	res, err := r.collection.UpdateOne(ctx,
		replaceSecretFilter(ownerID, label, from),
		replaceSecretUpdate(to, r.now()),
	)
	if err != nil {
		return r.fail(ctx, err, "mongoAccountRepository.ReplaceSecret", ownerID)
	}
	if res.MatchedCount == 0 {
		return ErrSecretChanged
	}
	return nil
}

func (r *mongoAccountRepository) findOwner(ctx context.Context, ownerID int64) (ownerDocument, bool, error) {
	var doc ownerDocument
	err := r.collection.FindOne(ctx, ownerFilter(ownerID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ownerDocument{}, false, nil
	}
	if err != nil {
		return ownerDocument{}, false, err
	}
	return doc, true, nil
}

func (r *mongoAccountRepository) fail(ctx context.Context, err error, fn string, ownerID int64) error {
	logger.FromContext(ctx).Err(err).
		Str("func", fn).
		Int64("owner_id", ownerID).
		Msg("mongo operation failed")
	return fmt.Errorf("%w: %w: %w", ErrUnavailable, ErrMongoOperation, err)
}
