package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Endpoint == "" {
		opCfg.Endpoint = c.AI.Endpoint
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.MaxTokens == nil {
		opCfg.MaxTokens = &c.AI.MaxTokens
	}
}

// GetEvaluationConfig returns the completion configuration for the overall
// evaluation analysis with fallback to global config.
func (c *Config) GetEvaluationConfig() OperationAIConfig {
	config := c.AI.Evaluation
	c.applyOperationDefaults(&config)
	return config
}

// GetMatchingConfig returns the completion configuration for
// criteria-matching analysis with fallback to global config.
func (c *Config) GetMatchingConfig() OperationAIConfig {
	config := c.AI.Matching
	c.applyOperationDefaults(&config)
	return config
}

// GetQuestionsConfig returns the completion configuration for interview
// question generation with fallback to global config.
func (c *Config) GetQuestionsConfig() OperationAIConfig {
	config := c.AI.Questions
	c.applyOperationDefaults(&config)
	return config
}

// GetTurnoverConfig returns the completion configuration for turnover
// risk assessment with fallback to global config.
func (c *Config) GetTurnoverConfig() OperationAIConfig {
	config := c.AI.Turnover
	c.applyOperationDefaults(&config)
	return config
}
