package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmer-market/internal/config"
)

type fakeJobs struct {
	digestDay time.Time
	digestErr error
	maxAge    time.Duration
	sent      map[string]string
}

func (f *fakeJobs) DailyDigest(_ context.Context, day time.Time) (string, error) {
	f.digestDay = day
	return "digest", f.digestErr
}

func (f *fakeJobs) ExpireStale(_ context.Context, maxAge time.Duration) (int64, error) {
	f.maxAge = maxAge
	return 2, nil
}

func (f *fakeJobs) Text(_ context.Context, to, body string) error {
	f.sent[to] = body
	return nil
}

func testConfig() config.Config {
	return config.Config{
		WhatsApp:   config.WhatsAppConfig{AdminNumber: "919000000000"},
		Reporting:  config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "Asia/Kolkata"},
		Prebooking: config.PrebookingConfig{ExpiryDays: 14, ExpiryCron: "0 * * * *"},
	}
}

func TestSendDailyDigest(t *testing.T) {
	jobs := &fakeJobs{sent: map[string]string{}}
	s := NewScheduler(testConfig(), jobs, jobs, jobs, nil)
	now := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.sendDailyDigest()
	assert.Equal(t, now, jobs.digestDay)
	assert.Equal(t, "digest", jobs.sent["919000000000"])

	jobs.sent = map[string]string{}
	jobs.digestErr = errors.New("mongo down")
	s.sendDailyDigest()
	assert.Empty(t, jobs.sent)
}

func TestExpirePreBookings(t *testing.T) {
	jobs := &fakeJobs{sent: map[string]string{}}
	s := NewScheduler(testConfig(), jobs, jobs, jobs, nil)

	s.expirePreBookings()
	assert.Equal(t, 14*24*time.Hour, jobs.maxAge)
}

func TestStart_RegistersJobs(t *testing.T) {
	jobs := &fakeJobs{sent: map[string]string{}}
	s := NewScheduler(testConfig(), jobs, jobs, jobs, nil)

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 2)
}

func TestStart_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Prebooking.ExpiryCron = "every now and then"
	s := NewScheduler(cfg, &fakeJobs{}, &fakeJobs{}, &fakeJobs{}, nil)

	assert.Error(t, s.Start())
}

func TestStart_NoAdminSkipsDigest(t *testing.T) {
	cfg := testConfig()
	cfg.WhatsApp.AdminNumber = ""
	jobs := &fakeJobs{sent: map[string]string{}}
	s := NewScheduler(cfg, jobs, jobs, jobs, nil)

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Len(t, s.cron.Entries(), 1)
}
