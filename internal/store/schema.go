package store

// Schema is the DDL for the four core tables plus the indexes the Feed
// Reader and Notification Reader queries use, and three Event indexes (by
// time, verb and object_id) that no query in this repository filters on; the
// analytics counters are in memory. It is not applied automatically — callers run it
// with their migration tool of choice (golang-migrate, a plain psql
// invocation, etc.); it is exported here so tests and local bring-up can
// apply it directly against a scratch database.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id          BIGSERIAL PRIMARY KEY,
	actor_id    BIGINT NOT NULL,
	verb        VARCHAR(64) NOT NULL,
	object_type VARCHAR(64) NOT NULL,
	object_id   VARCHAR(128) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS event_created_id_desc_idx ON events (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS event_verb_created_id_idx ON events (verb, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS event_obj_created_id_idx ON events (object_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS feed_items (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	event_id   BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT uniq_feed_user_event UNIQUE (user_id, event_id)
);

CREATE INDEX IF NOT EXISTS feed_user_created_id_idx ON feed_items (user_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS notifications (
	id           BIGSERIAL PRIMARY KEY,
	user_id      BIGINT NOT NULL,
	event_id     BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	created_at   TIMESTAMPTZ NOT NULL,
	read_at      TIMESTAMPTZ,
	delivered_at TIMESTAMPTZ,
	CONSTRAINT uniq_notif_user_event UNIQUE (user_id, event_id)
);

CREATE INDEX IF NOT EXISTS notif_user_created_id_idx ON notifications (user_id, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS notif_user_id_idx ON notifications (user_id, id);

CREATE TABLE IF NOT EXISTS idempotency_keys (
	id         BIGSERIAL PRIMARY KEY,
	key        VARCHAR(255) NOT NULL UNIQUE,
	event_id   BIGINT REFERENCES events(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idem_created_desc_idx ON idempotency_keys (created_at DESC);
`
