package persistence

import "fmt"

// NewTaskStore creates a new TaskStore based on the configuration.
func NewTaskStore(config StoreConfig) (TaskStore, error) {
	switch config.Type {
	case StoreTypeMemory:
		return NewMemoryTaskStore(config), nil
	case StoreTypeMongo:
		return NewMongoTaskStore(config)
	case StoreTypeRedis:
		return NewRedisTaskStore(config)
	default:
		return nil, fmt.Errorf("unsupported task store type: %s", config.Type)
	}
}

// NewMessageStore creates a new MessageStore based on the configuration.
func NewMessageStore(config StoreConfig) (MessageStore, error) {
	switch config.Type {
	case StoreTypeMemory:
		return NewMemoryMessageStore(config), nil
	case StoreTypeMongo:
		return NewMongoMessageStore(config)
	case StoreTypeRedis:
		return NewRedisMessageStore(config)
	default:
		return nil, fmt.Errorf("unsupported message store type: %s", config.Type)
	}
}
