package store

import (
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/MKhiriev/go-account-keeper/models"
)

// ownerDocument holds every identity of one owner, so each mutation is a
// single-document update and therefore atomic without transactions.
// Active is the label of the active identity or "" when there is none.
type ownerDocument struct {
	OwnerID  int64             `bson:"_id"`
	Active   string            `bson:"active"`
	Accounts []accountDocument `bson:"accounts"`
}

type accountDocument struct {
	Label     string                `bson:"label"`
	Token     string                `bson:"token"`
	Secret    models.SecretMaterial `bson:"secret"`
	UpdatedAt time.Time             `bson:"updated_at"`
}

func ownerFilter(ownerID int64) bson.M {
	return bson.M{"_id": ownerID}
}

func ownerAccountFilter(ownerID int64, label string) bson.M {
	return bson.M{"_id": ownerID, "accounts.label": label}
}

// upsertActivePipeline drops any identity with the same label, appends the
// new one, and marks it active. Values go through $literal so that strings
// starting with "$" (bcrypt hashes, odd labels) are not read as field paths.
func upsertActivePipeline(label, token string, secret models.SecretMaterial, now time.Time) mongo.Pipeline {
	kind, value := secretColumns(secret)
	account := bson.M{
		"label":      label,
		"token":      token,
		"secret":     bson.M{"kind": kind, "value": value},
		"updated_at": now,
	}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"active": bson.M{"$literal": label},
			"accounts": bson.M{"$concatArrays": bson.A{
				withoutLabel(label),
				bson.M{"$literal": bson.A{account}},
			}},
		}}},
	}
}

// deletePipeline removes one identity and clears the active marker when it
// pointed at it.
func deletePipeline(label string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"accounts": withoutLabel(label),
			"active": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": bson.A{"$active", bson.M{"$literal": label}}},
				"then": "",
				"else": "$active",
			}},
		}}},
	}
}

func withoutLabel(label string) bson.M {
	return bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$accounts", bson.A{}}},
		"cond":  bson.M{"$ne": bson.A{"$$this.label", bson.M{"$literal": label}}},
	}}
}

func setActiveUpdate(label string) bson.M {
	return bson.M{"$set": bson.M{"active": label}}
}

func updateTokenUpdate(token string, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"accounts.$.token":      token,
		"accounts.$.updated_at": now,
	}}
}

func hasAnyFilter(ownerID int64) bson.M {
	return bson.M{"_id": ownerID, "accounts.0": bson.M{"$exists": true}}
}

func listSecretsFilter() bson.M {
	return bson.M{"accounts": bson.M{"$elemMatch": bson.M{
		"secret.kind":  bson.M{"$ne": string(models.SecretNone)},
		"secret.value": bson.M{"$nin": bson.A{nil, ""}},
	}}}
}

// replaceSecretFilter matches the owner document only while the identity
// still holds `from`; the positional operator then targets that element.
func replaceSecretFilter(ownerID int64, label string, from models.SecretMaterial) bson.M {
	kind, value := secretColumns(from)
	return bson.M{
		"_id": ownerID,
		"accounts": bson.M{"$elemMatch": bson.M{
			"label":        label,
			"secret.kind":  kind,
			"secret.value": value,
		}},
	}
}

func replaceSecretUpdate(to models.SecretMaterial, now time.Time) bson.M {
	kind, value := secretColumns(to)
	return bson.M{"$set": bson.M{
		"accounts.$.secret":     bson.M{"kind": kind, "value": value},
		"accounts.$.updated_at": now,
	}}
}

// activeIdentity extracts the active identity of doc.
func (d ownerDocument) activeIdentity() (models.Identity, bool) {
	if d.Active == "" {
		return models.Identity{}, false
	}
	for _, a := range d.Accounts {
		if a.Label == d.Active {
			return a.identity(d.OwnerID, true), true
		}
	}
	return models.Identity{}, false
}

// identityByLabel extracts the identity stored under label.
func (d ownerDocument) identityByLabel(label string) (models.Identity, bool) {
	for _, a := range d.Accounts {
		if a.Label == label {
			return a.identity(d.OwnerID, d.Active != "" && a.Label == d.Active), true
		}
	}
	return models.Identity{}, false
}

// summaries returns the identities of doc ordered by label.
func (d ownerDocument) summaries() []models.AccountSummary {
	out := make([]models.AccountSummary, 0, len(d.Accounts))
	for _, a := range d.Accounts {
		out = append(out, models.AccountSummary{Label: a.Label, IsActive: a.Label == d.Active})
	}
	slices.SortFunc(out, func(x, y models.AccountSummary) int {
		return strings.Compare(x.Label, y.Label)
	})
	return out
}

// secretRecords returns the non-empty secrets of doc.
func (d ownerDocument) secretRecords() []models.SecretRecord {
	var out []models.SecretRecord
	for _, a := range d.Accounts {
		if a.Secret.IsEmpty() {
			continue
		}
		out = append(out, models.SecretRecord{OwnerID: d.OwnerID, Label: a.Label, Secret: a.Secret})
	}
	return out
}

func (a accountDocument) identity(ownerID int64, active bool) models.Identity {
	secret := a.Secret
	if secret.Kind == "" {
		secret = models.NoSecret()
	}
	return models.Identity{
		OwnerID:      ownerID,
		Label:        a.Label,
		SessionToken: a.Token,
		Secret:       secret,
		IsActive:     active,
		UpdatedAt:    a.UpdatedAt,
	}
}
