//go:build integration

package followup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"patientcore/internal/followup"
	"patientcore/internal/patient/models"
	id "patientcore/pkg/domain"
	"patientcore/pkg/testutil/containers"
)

type RedisSinkSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backlog *followup.RedisBacklog
	dead    *followup.RedisDeadLetters
}

func TestRedisSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSinkSuite))
}

func (s *RedisSinkSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.backlog = followup.NewRedisBacklog(s.redis.Client)
	s.dead = followup.NewRedisDeadLetters(s.redis.Client, 3)
}

func (s *RedisSinkSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSinkSuite) TestBacklogRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	older := followup.BacklogEntry{PatientID: id.NewPatientID(), Email: "a@example.com", Reason: "timeout", RecordedAt: now.Add(-time.Minute)}
	newer := followup.BacklogEntry{PatientID: id.NewPatientID(), Email: "b@example.com", Reason: "unavailable", RecordedAt: now}

	s.Require().NoError(s.backlog.Record(ctx, newer))
	s.Require().NoError(s.backlog.Record(ctx, older))

	pending, err := s.backlog.Pending(ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(older.PatientID, pending[0].PatientID)
	s.Equal("b@example.com", pending[1].Email)

	s.Require().NoError(s.backlog.Resolve(ctx, older.PatientID))
	pending, err = s.backlog.Pending(ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *RedisSinkSuite) TestDeadLettersAreCapped() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.dead.RecordDeadLetter(ctx, followup.DeadLetter{
			Event:    models.PatientEvent{EventID: id.NewEventID(), EventType: models.EventUpdated},
			Reason:   followup.ReasonExhausted,
			Attempts: i + 1,
		}))
	}

	letters, err := s.dead.List(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(letters, 3)
	s.Equal(5, letters[0].Attempts, "newest first")
}
