package v1alpha1

func StringToTaskStatus(s string) TaskStatus {
	switch s {
	case string(TaskStatusQueued):
		return TaskStatusQueued
	case string(TaskStatusProcessing):
		return TaskStatusProcessing
	case string(TaskStatusCompleted):
		return TaskStatusCompleted
	case string(TaskStatusFailed):
		return TaskStatusFailed
	default:
		return TaskStatusQueued
	}
}
