package billing

//go:generate protoc -I ../../proto --go_out=. --go_opt=module=patientcore/internal/billing --go-grpc_out=. --go-grpc_opt=module=patientcore/internal/billing billing/v1/billing.proto
