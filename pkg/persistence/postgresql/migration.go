package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create channels table
			CREATE TABLE channels (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL DEFAULT '',
				phone_number_id VARCHAR(255) NOT NULL,
				phone_number VARCHAR(64) NOT NULL DEFAULT '',
				access_token TEXT NOT NULL,
				verify_token TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- Create flows table; the graph is stored as JSONB documents
			CREATE TABLE flows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				channel_id VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(50) NOT NULL,
				trigger_value TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				is_published BOOLEAN NOT NULL DEFAULT FALSE,
				priority INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_flows_channel_runnable ON flows(channel_id, is_active, is_published);
		`,
		2: `
			-- Execution cursors, one per conversation key
			CREATE TABLE execution_states (
				conversation_id VARCHAR(255) NOT NULL,
				channel_id VARCHAR(255) NOT NULL,
				id VARCHAR(255) NOT NULL,
				flow_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'waiting', 'completed', 'errored')),
				current_node_id VARCHAR(255) NOT NULL DEFAULT '',
				wait JSONB,
				variables JSONB NOT NULL DEFAULT '{}',
				loop_counters JSONB NOT NULL DEFAULT '{}',
				version BIGINT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (conversation_id, channel_id)
			);

			CREATE INDEX idx_execution_states_status ON execution_states(status);

			CREATE TABLE execution_leases (
				lease_key VARCHAR(512) PRIMARY KEY,
				owner VARCHAR(255) NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE processed_messages (
				message_id VARCHAR(255) PRIMARY KEY,
				processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
