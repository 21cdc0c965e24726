package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE protection_groups (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				account_id VARCHAR(12) NOT NULL,
				region VARCHAR(32) NOT NULL,
				source_server_ids JSONB,
				selection_tags JSONB,
				launch_config JSONB,
				launch_overrides JSONB,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_protection_groups_account_id ON protection_groups(account_id);
			CREATE INDEX idx_protection_groups_deleted_at ON protection_groups(deleted_at);

			CREATE TABLE recovery_plans (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				waves JSONB NOT NULL,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_recovery_plans_deleted_at ON recovery_plans(deleted_at);

			CREATE TABLE target_accounts (
				account_id VARCHAR(12) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				role_name VARCHAR(255),
				external_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE TABLE executions (
				execution_id VARCHAR(255) PRIMARY KEY,
				plan_id VARCHAR(255) NOT NULL,
				status VARCHAR(32) NOT NULL,
				state JSONB NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_executions_plan_id ON executions(plan_id);
			CREATE INDEX idx_executions_status ON executions(status);
		`,
	}
}
