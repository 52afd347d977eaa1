package repository

import (
    "context"
    "strconv"

    "github.com/redis/go-redis/v9"
)

// PreferenceRepo stores per-user preference maps (server password,
// hostname, preferred region and the like) in Redis hashes.  A user's
// hash is created lazily on the first write and never explicitly
// deleted.  Values are stored as strings; booleans as "true"/"false".
type PreferenceRepo struct {
    rdb *redis.Client
}

// NewPreferenceRepo returns a PreferenceRepo bound to the given client.
// The client may be nil, in which case all reads miss and writes fail
// gracefully with ErrPreferencesUnavailable.
func NewPreferenceRepo(rdb *redis.Client) *PreferenceRepo { return &PreferenceRepo{rdb: rdb} }

// ErrPreferencesUnavailable is returned on writes when Redis is not
// configured.  Reads degrade to "not set" instead.
var ErrPreferencesUnavailable = errPreferencesUnavailable{}

type errPreferencesUnavailable struct{}

func (errPreferencesUnavailable) Error() string { return "preference store unavailable" }

func prefKey(user string) string { return "pref:" + user }

// Set stores one preference value for a user.
func (r *PreferenceRepo) Set(ctx context.Context, user, key, value string) error {
    if r.rdb == nil {
        return ErrPreferencesUnavailable
    }
    return r.rdb.HSet(ctx, prefKey(user), key, value).Err()
}

// SetBool stores a boolean preference value.
func (r *PreferenceRepo) SetBool(ctx context.Context, user, key string, value bool) error {
    return r.Set(ctx, user, key, strconv.FormatBool(value))
}

// Get returns a preference value and whether it was set.
func (r *PreferenceRepo) Get(ctx context.Context, user, key string) (string, bool, error) {
    if r.rdb == nil {
        return "", false, nil
    }
    v, err := r.rdb.HGet(ctx, prefKey(user), key).Result()
    if err == redis.Nil {
        return "", false, nil
    }
    if err != nil {
        return "", false, err
    }
    return v, true, nil
}

// GetBool returns a boolean preference value and whether it was set.
func (r *PreferenceRepo) GetBool(ctx context.Context, user, key string) (bool, bool, error) {
    v, ok, err := r.Get(ctx, user, key)
    if err != nil || !ok {
        return false, ok, err
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        return false, false, nil
    }
    return b, true, nil
}

// GetAll returns the user's whole preference map.  A missing hash yields
// an empty map.
func (r *PreferenceRepo) GetAll(ctx context.Context, user string) (map[string]string, error) {
    if r.rdb == nil {
        return map[string]string{}, nil
    }
    return r.rdb.HGetAll(ctx, prefKey(user)).Result()
}
