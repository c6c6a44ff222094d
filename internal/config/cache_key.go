package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthSessionKey returns the key that marks a signed-in session (JWT ID) as live.
func (r *CacheKeyStruct) AuthSessionKey(jti string) string {
	return fmt.Sprintf("auth:session:%s", jti)
}

// SignOutChannel returns the PubSub channel notified when a session signs out.
func (r *CacheKeyStruct) SignOutChannel(jti string) string {
	return fmt.Sprintf("auth:signout:%s", jti)
}

// StudentStorageKey namespaces a dashboard storage key under a student.
// The key itself keeps the dashboard's naming, e.g. "exam-{examId}-answers".
func (r *CacheKeyStruct) StudentStorageKey(uid, key string) string {
	return fmt.Sprintf("student:%s:%s", uid, key)
}

// ExamAnswersKey returns the storage key holding a student's selected options.
func (r *CacheKeyStruct) ExamAnswersKey(examID string) string {
	return fmt.Sprintf("exam-%s-answers", examID)
}

// ExamSubmittedKey returns the storage key holding the submitted flag.
func (r *CacheKeyStruct) ExamSubmittedKey(examID string) string {
	return fmt.Sprintf("exam-%s-submitted", examID)
}

// CollectionChannel returns the PubSub channel carrying change events for a
// document collection path.
func (r *CacheKeyStruct) CollectionChannel(collection string) string {
	return fmt.Sprintf("docstore:%s", collection)
}

var CacheKey = NewCacheKeyStruct()
