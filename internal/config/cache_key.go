package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LearnerSessionKey returns the cache key for a learner's login session
func (r *CacheKeyStruct) LearnerSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptStartKey returns the cache key for an attempt's start timestamp
func (r *CacheKeyStruct) AttemptStartKey(evaluationID string, userID int) string {
	return fmt.Sprintf("user:%d:evaluation:%s:attempt_start", userID, evaluationID)
}

// AttemptAnswersKey returns the cache key for an attempt's answer mirror
func (r *CacheKeyStruct) AttemptAnswersKey(evaluationID string, userID int) string {
	return fmt.Sprintf("user:%d:evaluation:%s:answers", userID, evaluationID)
}

// EvaluationPayloadKey returns the cache key for an evaluation's learner payload
func (r *CacheKeyStruct) EvaluationPayloadKey(evaluationID string) string {
	return fmt.Sprintf("evaluation:%s:payload", evaluationID)
}

// EvaluationAnswerKey returns the cache key for an evaluation's answer key hash
func (r *CacheKeyStruct) EvaluationAnswerKey(evaluationID string) string {
	return fmt.Sprintf("evaluation:%s:key", evaluationID)
}

var CacheKey = NewCacheKeyStruct()
