package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name HistoryRepository --dir ../domain/lottery --output domain/lottery --outpkg lotterymock --filename history_repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ReportSink --dir ../domain/lottery --output domain/lottery --outpkg lotterymock --filename report_sink_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name CandidateSource --dir ../domain/lottery --output domain/lottery --outpkg lotterymock --filename candidate_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ConfigRepository --dir ../domain/lottery --output domain/lottery --outpkg lotterymock --filename config_repository_mock.go
