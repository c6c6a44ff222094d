package config

type WorkerKeyStruct struct {
	SubmissionAuditQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SubmissionAuditQueue: "submission_audit_queue",
}
