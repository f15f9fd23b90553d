// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (хранилища, реестр, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (recovery, request id, logging, CORS)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - editor_handler.go   — save_workflow, load_workflow, execute_node
//   - workflow_handler.go — обработчики для /api/v1/workflows
//   - node_handler.go     — обработчики для /api/v1/nodes и /api/v1/node-types
//
// Эндпоинты редактора (/api/save_workflow/ и т.д.) отвечают плоским
// {"error": "..."}, как ожидает фронтенд. CRUD под /api/v1 использует
// конверты {"data": ...} и {"error": {"code", "message"}}.
package api
