package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	bucketDocs         = []byte("docs")
	bucketChunks       = []byte("chunks")
	bucketBlobs        = []byte("blobs")
	bucketTerms        = []byte("terms")
	bucketSummaries    = []byte("summaries")
	bucketSummaryTerms = []byte("summary_terms")
	bucketVectors      = []byte("vectors")
	bucketStats        = []byte("stats")
	keyStats           = []byte("corpus_stats")
)

var allBuckets = [][]byte{bucketDocs, bucketChunks, bucketBlobs, bucketTerms, bucketSummaries, bucketSummaryTerms, bucketVectors, bucketStats}

// BoltStore persists the corpus index in a single bbolt file. After
// ingestion it is opened read-mostly; concurrent readers need no locking.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// NewBoltStoreReadOnly opens an existing index with a shared file lock,
// so several handles can read the same file at once. Write methods fail;
// callers that index use NewBoltStore.
func NewBoltStoreReadOnly(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.View(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if tx.Bucket(b) == nil {
				return fmt.Errorf("index is missing bucket %s", b)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type chunkMeta struct {
	DocID    string   `json:"doc_id"`
	Filename string   `json:"filename"`
	Tokens   []string `json:"tokens"`
}

func (s *BoltStore) GetChunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("chunk not found: %s", id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		text := tx.Bucket(bucketBlobs).Get([]byte(id))
		chunk = domain.Chunk{
			ID:       id,
			DocID:    meta.DocID,
			Filename: meta.Filename,
			Tokens:   meta.Tokens,
			Text:     string(text),
		}
		return nil
	})
	return chunk, err
}

func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(docID))
		if data == nil {
			return nil
		}
		var info storedDoc
		if err := json.Unmarshal(data, &info); err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range info.ChunkIDs {
			data := chunkBucket.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				continue
			}
			text := blobBucket.Get([]byte(id))
			chunks = append(chunks, domain.Chunk{
				ID:       id,
				DocID:    meta.DocID,
				Filename: meta.Filename,
				Tokens:   meta.Tokens,
				Text:     string(text),
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) ListChunks() ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		blobBucket := tx.Bucket(bucketBlobs)
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var meta chunkMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return nil
			}
			text := blobBucket.Get(k)
			chunks = append(chunks, domain.Chunk{
				ID:       string(k),
				DocID:    meta.DocID,
				Filename: meta.Filename,
				Tokens:   meta.Tokens,
				Text:     string(text),
			})
			return nil
		})
	})
	return chunks, err
}

type storedDoc struct {
	Filename string   `json:"filename"`
	ChunkIDs []string `json:"chunk_ids"`
}

func (s *BoltStore) ListDocuments() ([]domain.DocumentInfo, error) {
	var docs []domain.DocumentInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var info storedDoc
			if err := json.Unmarshal(v, &info); err != nil {
				return nil
			}
			docs = append(docs, domain.DocumentInfo{
				DocID:      string(k),
				Filename:   info.Filename,
				ChunkCount: len(info.ChunkIDs),
			})
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) GetPostings(term string) ([]domain.Posting, error) {
	return s.getPostings(bucketTerms, term)
}

func (s *BoltStore) GetSummaryPostings(term string) ([]domain.Posting, error) {
	return s.getPostings(bucketSummaryTerms, term)
}

func (s *BoltStore) getPostings(bucket []byte, term string) ([]domain.Posting, error) {
	var postings []domain.Posting
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(term))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &postings)
	})
	return postings, err
}

func (s *BoltStore) GetSummary(chunkID string) (string, error) {
	var summary string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSummaries).Get([]byte(chunkID))
		summary = string(data)
		return nil
	})
	return summary, err
}

func (s *BoltStore) SummaryCount() (int, error) {
	return s.bucketCount(bucketSummaries)
}

func (s *BoltStore) GetVector(chunkID string) ([]float32, error) {
	var vec []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketVectors).Get([]byte(chunkID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &vec)
	})
	return vec, err
}

func (s *BoltStore) ListVectors() (map[string][]float32, error) {
	vectors := make(map[string][]float32)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(k, v []byte) error {
			var vec []float32
			if err := json.Unmarshal(v, &vec); err != nil {
				return nil
			}
			vectors[string(k)] = vec
			return nil
		})
	})
	return vectors, err
}

func (s *BoltStore) VectorCount() (int, error) {
	return s.bucketCount(bucketVectors)
}

func (s *BoltStore) bucketCount(bucket []byte) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketStats).Put(keyStats, data)
	})
}

// BatchIndex writes whole documents in one transaction. Postings for all
// files are accumulated first so each term is written once.
func (s *BoltStore) BatchIndex(files []port.IndexedFile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket := tx.Bucket(bucketDocs)
		chunksBucket := tx.Bucket(bucketChunks)
		blobsBucket := tx.Bucket(bucketBlobs)
		termsBucket := tx.Bucket(bucketTerms)

		allPostings := make(map[string][]domain.Posting)

		for _, file := range files {
			chunkIDs := make([]string, 0, len(file.Chunks))
			for _, chunk := range file.Chunks {
				meta := chunkMeta{
					DocID:    chunk.DocID,
					Filename: chunk.Filename,
					Tokens:   chunk.Tokens,
				}
				data, err := json.Marshal(meta)
				if err != nil {
					return err
				}
				if err := chunksBucket.Put([]byte(chunk.ID), data); err != nil {
					return err
				}
				if err := blobsBucket.Put([]byte(chunk.ID), []byte(chunk.Text)); err != nil {
					return err
				}
				chunkIDs = append(chunkIDs, chunk.ID)
			}

			docData, err := json.Marshal(storedDoc{
				Filename: file.Info.Filename,
				ChunkIDs: chunkIDs,
			})
			if err != nil {
				return err
			}
			if err := docsBucket.Put([]byte(file.Info.DocID), docData); err != nil {
				return err
			}

			for term, chunkTFs := range file.Postings {
				for chunkID, tf := range chunkTFs {
					allPostings[term] = append(allPostings[term], domain.Posting{
						ChunkID: chunkID,
						TF:      tf,
					})
				}
			}
		}

		for term, newPostings := range allPostings {
			var existing []domain.Posting
			if data := termsBucket.Get([]byte(term)); data != nil {
				json.Unmarshal(data, &existing)
			}
			existing = append(existing, newPostings...)
			data, err := json.Marshal(existing)
			if err != nil {
				return err
			}
			if err := termsBucket.Put([]byte(term), data); err != nil {
				return err
			}
		}

		return nil
	})
}

// PutSummary stores a chunk summary and its postings in the secondary
// summary index.
func (s *BoltStore) PutSummary(chunkID, summary string, tokens []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSummaries).Put([]byte(chunkID), []byte(summary)); err != nil {
			return err
		}

		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}

		b := tx.Bucket(bucketSummaryTerms)
		for term, count := range tf {
			var postings []domain.Posting
			if data := b.Get([]byte(term)); data != nil {
				json.Unmarshal(data, &postings)
			}
			found := false
			for i := range postings {
				if postings[i].ChunkID == chunkID {
					postings[i].TF = count
					found = true
					break
				}
			}
			if !found {
				postings = append(postings, domain.Posting{ChunkID: chunkID, TF: count})
			}
			data, err := json.Marshal(postings)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(term), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) PutVector(chunkID string, vector []float32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(vector)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketVectors).Put([]byte(chunkID), data)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
