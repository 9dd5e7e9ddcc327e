package navigation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/school-map-service/internal/cluster"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/marker"
	"github.com/couchcryptid/school-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingView logs the calls the controller makes.
type recordingView struct {
	visible map[string]bool
	calls   []string
	zoom    int
}

func (v *recordingView) SetView(_, _ float64, zoom int) {
	v.zoom = zoom
	v.calls = append(v.calls, "setView")
}

func (v *recordingView) HasLayer(m *marker.Marker) bool {
	return v.visible[m.Key()]
}

func (v *recordingView) ZoomToShowLayer(m *marker.Marker, done func()) {
	v.calls = append(v.calls, "zoomToShowLayer:"+m.Key())
	done()
}

func (v *recordingView) OpenPopup(m *marker.Marker) {
	v.calls = append(v.calls, "openPopup:"+m.Key())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry() *marker.Registry {
	schools := []domain.School{
		{Name: "Haugen skole", Municipality: "Oslo", Lat: 59.95, Lng: 10.87},
		{Name: "Haugen skole", Municipality: "Bergen", Lat: 60.39, Lng: 5.32},
		{Name: "Tvilling skole", Municipality: "Oslo", Lat: 59.95, Lng: 10.87},
	}
	for i := range schools {
		schools[i].Derive()
	}
	return marker.NewFactory("2025-26", discardLogger()).Build(schools)
}

func navigateAsync(t *testing.T, c *Controller, name, municipality string) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- c.Navigate(context.Background(), name, municipality) }()
	return errc
}

func TestNavigate_OpensPopupAfterSettleDelay(t *testing.T) {
	fc := clockwork.NewFakeClock()
	view := &recordingView{visible: map[string]bool{"Haugen skole|Bergen": true}}
	c := New(view, testRegistry(), fc, discardLogger(), observability.NewMetricsForTesting())

	errc := navigateAsync(t, c, "Haugen skole", "Bergen")
	require.NoError(t, fc.BlockUntilContext(context.Background(), 1))
	assert.Equal(t, []string{"setView"}, view.calls, "popup waits for the view to settle")

	fc.Advance(SettleDelay)
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"setView", "openPopup:Haugen skole|Bergen"}, view.calls)
	assert.Equal(t, CloseZoom, view.zoom)
}

func TestNavigate_RevealsClusteredMarker(t *testing.T) {
	fc := clockwork.NewFakeClock()
	view := &recordingView{visible: map[string]bool{}}
	c := New(view, testRegistry(), fc, discardLogger(), observability.NewMetricsForTesting())

	errc := navigateAsync(t, c, "Haugen skole", "Oslo")
	require.NoError(t, fc.BlockUntilContext(context.Background(), 1))
	fc.Advance(SettleDelay)
	require.NoError(t, <-errc)

	assert.Equal(t, []string{
		"setView",
		"zoomToShowLayer:Haugen skole|Oslo",
		"openPopup:Haugen skole|Oslo",
	}, view.calls)
}

func TestNavigate_NotFound(t *testing.T) {
	view := &recordingView{}
	c := New(view, testRegistry(), clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting())

	err := c.Navigate(context.Background(), "Haugen skole", "Asker")
	require.ErrorIs(t, err, ErrMarkerNotFound)
	assert.Empty(t, view.calls)
}

func TestNavigate_ContextCancelledDuringSettle(t *testing.T) {
	view := &recordingView{visible: map[string]bool{}}
	c := New(view, testRegistry(), clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Navigate(ctx, "Haugen skole", "Oslo")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"setView"}, view.calls)
}

func TestPlanView_SameNameResolvesByMunicipality(t *testing.T) {
	reg := testRegistry()
	pv := NewPlanView(cluster.NewIndex(reg.Members()))
	c := New(pv, reg, clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting()).WithSettleDelay(0)

	require.NoError(t, c.Navigate(context.Background(), "Haugen skole", "Bergen"))

	plan, err := pv.Plan()
	require.NoError(t, err)
	assert.Equal(t, "Haugen skole|Bergen", plan.Key)
	assert.InDelta(t, 60.39, plan.Lat, 1e-9)
	assert.Equal(t, CloseZoom, plan.Zoom)
	assert.False(t, plan.Reveal)
	assert.Equal(t, int64(500), plan.SettleMS)
	assert.Contains(t, string(plan.Popup), "Bergen")
}

func TestPlanView_ColocatedMarkersSpread(t *testing.T) {
	reg := testRegistry()
	pv := NewPlanView(cluster.NewIndex(reg.Members()))
	c := New(pv, reg, clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting()).WithSettleDelay(0)

	require.NoError(t, c.Navigate(context.Background(), "Tvilling skole", "Oslo"))

	plan, err := pv.Plan()
	require.NoError(t, err)
	assert.True(t, plan.Reveal)
	assert.True(t, plan.Spread)
	assert.Equal(t, cluster.MaxZoom, plan.RevealZoom)
	assert.Equal(t, "Tvilling skole|Oslo", plan.Key)
}

func TestNavigate_DefaultSettleDelay(t *testing.T) {
	c := New(&recordingView{}, testRegistry(), clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting())
	assert.Equal(t, 500*time.Millisecond, c.settle)
}

func TestPlanView_CombinedSchoolResolvesByType(t *testing.T) {
	schools := []domain.School{
		{Name: "Bjørnholt skole", Municipality: "Oslo", Type: domain.Primary, Lat: 59.853, Lng: 10.802},
		{Name: "Bjørnholt skole", Municipality: "Oslo", Type: domain.LowerSecondary, Lat: 59.857, Lng: 10.811},
	}
	for i := range schools {
		schools[i].Derive()
	}
	reg := marker.NewFactory("2025-26", discardLogger()).Build(schools)
	pv := NewPlanView(cluster.NewIndex(reg.Members()))
	c := New(pv, reg, clockwork.NewFakeClock(), discardLogger(), observability.NewMetricsForTesting()).WithSettleDelay(0)

	require.NoError(t, c.NavigateTo(context.Background(), "Bjørnholt skole", "Oslo", domain.LowerSecondary))

	plan, err := pv.Plan()
	require.NoError(t, err)
	assert.Equal(t, domain.LowerSecondary, plan.Type)
	assert.Equal(t, "Bjørnholt skole|Oslo|ungdomsskole", plan.ID)
	assert.InDelta(t, 59.857, plan.Lat, 1e-9)
	assert.Contains(t, string(plan.Popup), "Ungdomsskole")
}
