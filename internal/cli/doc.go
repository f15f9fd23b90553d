// Package cli реализует инструмент командной строки graphflow.
//
// # Обзор
//
// CLI — клиентская утилита для graphflow API. Работает через HTTP
// и не импортирует внутренние пакеты сервера.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент. Понимает оба формата ошибок API: плоский {"error": "..."}
// эндпоинтов редактора и {"error": {"code", "message"}} из /api/v1.
//
//	client := cli.NewClient("http://localhost:8000")
//	wf, err := client.LoadWorkflow("MyWorkflow")
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные пишутся в stdout, сообщения (Success/Error) — в stderr:
//
//	graphflow workflow list --json | jq .
//
// ## Commands
//
//   - workflow: save, load, list, show, delete
//   - node: exec, list, create, delete
//   - node-types
//
// Группы создаются фабриками (NewWorkflowCmd и т.д.), которые принимают
// clientFn и outputFn — замыкания, вызываемые после разбора PersistentFlags.
package cli
