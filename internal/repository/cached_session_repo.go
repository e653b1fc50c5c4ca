package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/recipebox/internal/model"
)

const sessionCacheKeyPrefix = "session:"

// CachedSessionRepo はSessionRepositoryの読み取りをキャッシュするデコレータ。
// キャッシュのTTLはセッションの残り有効期間を超えない。
// キャッシュの読み書きに失敗した場合は元のリポジトリにフォールバックする。
type CachedSessionRepo struct {
	next  SessionRepository
	store SessionCacheStore
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedSessionRepo はCachedSessionRepoを生成する。
func NewCachedSessionRepo(next SessionRepository, store SessionCacheStore, ttl time.Duration) *CachedSessionRepo {
	return &CachedSessionRepo{
		next:  next,
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create はセッションを作成する。作成時点ではキャッシュに載せない。
func (r *CachedSessionRepo) Create(ctx context.Context, session *model.Session) error {
	return r.next.Create(ctx, session)
}

// FindByToken はキャッシュを優先してセッションを取得する。
func (r *CachedSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	key := sessionCacheKeyPrefix + token

	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		slog.Warn("session cache get failed", slog.String("error", err.Error()))
	}
	if ok {
		var session model.Session
		if err := json.Unmarshal(data, &session); err == nil {
			// Tokenはjson:"-"のため復元されない
			session.Token = token
			return &session, nil
		}
	}

	session, err := r.next.FindByToken(ctx, token)
	if err != nil || session == nil {
		return session, err
	}

	ttl := r.ttl
	if remaining := session.ExpiresAt.Sub(r.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return session, nil
	}

	encoded, err := json.Marshal(session)
	if err != nil {
		return session, nil
	}
	if err := r.store.Set(ctx, key, encoded, ttl); err != nil {
		slog.Warn("session cache set failed", slog.String("error", err.Error()))
	}

	return session, nil
}

// DeleteByToken はセッションを削除し、キャッシュも無効化する。
// 削除と並行したFindByTokenが削除前の行を書き戻すことがあるため、キャッシュはDB削除の前後で2回消す。
func (r *CachedSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	key := sessionCacheKeyPrefix + token
	r.evict(ctx, key)
	if err := r.next.DeleteByToken(ctx, token); err != nil {
		return err
	}
	r.evict(ctx, key)
	return nil
}

func (r *CachedSessionRepo) evict(ctx context.Context, key string) {
	if err := r.store.Del(ctx, key); err != nil {
		slog.Warn("session cache delete failed", slog.String("error", err.Error()))
	}
}

// RedisCacheStore はgo-redisを使用したSessionCacheStoreの実装。
type RedisCacheStore struct {
	rdb *redis.Client
}

// NewRedisCacheStore はRedisCacheStoreを生成する。
func NewRedisCacheStore(rdb *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{rdb: rdb}
}

// Get はキーの値を取得する。キーが存在しない場合はok=falseを返す。
func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set はTTL付きで値を保存する。
func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Del はキーを削除する。
func (s *RedisCacheStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// NewRedisClient はRedis URLからクライアントを生成し、疎通を確認する。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// compile-time interface check
var (
	_ SessionRepository = (*CachedSessionRepo)(nil)
	_ SessionCacheStore = (*RedisCacheStore)(nil)
)
