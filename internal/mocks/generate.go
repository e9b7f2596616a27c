package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DatasetRepository --dir ../domain/competition --output domain/competition --outpkg competitionmock --filename repository_mock.go
