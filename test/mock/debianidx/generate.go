package mock_debianidx

//go:generate -command mockgen go run go.uber.org/mock/mockgen -destination=./mocks.go github.com/alien4friends/a4f-core/internal/matcher/debianidx
//go:generate mockgen Current,Snapshot
