package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				graph JSONB NOT NULL,
				definition JSONB,
				current_version INT NOT NULL DEFAULT 0,
				run_count BIGINT NOT NULL DEFAULT 0,
				last_run_id VARCHAR(255),
				last_run_status VARCHAR(50),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_created_at ON workflows(created_at);

			CREATE TABLE workflow_versions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				number INT NOT NULL,
				graph JSONB NOT NULL,
				definition JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (workflow_id, number)
			);

			CREATE INDEX idx_workflow_versions_workflow_id ON workflow_versions(workflow_id);
		`,
		2: `
			CREATE TABLE runs (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id UUID NOT NULL,
				version_id UUID NOT NULL,
				version_number INT NOT NULL,
				engine_run_id VARCHAR(255) NOT NULL,
				total_actions INT NOT NULL,
				last_status VARCHAR(50),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_runs_workflow_id ON runs(workflow_id);
			CREATE INDEX idx_runs_created_at ON runs(created_at);

			CREATE TABLE trace_events (
				run_id VARCHAR(255) NOT NULL,
				sequence BIGINT NOT NULL,
				workflow_id VARCHAR(255),
				node_id VARCHAR(255) NOT NULL,
				event_type VARCHAR(50) NOT NULL,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
				message TEXT,
				output_summary JSONB,
				error TEXT,
				PRIMARY KEY (run_id, sequence)
			);

			CREATE INDEX idx_trace_events_workflow_id ON trace_events(workflow_id);
		`,
	}
}
